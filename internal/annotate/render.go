package annotate

import (
	"image"
	"image/color"
	"image/draw"
	"math"
)

// RenderAnnotations 将所有标注按列表顺序渲染到基础图片的副本上
func RenderAnnotations(base *image.RGBA, annotations []Annotation) *image.RGBA {
	// 创建副本，避免修改原图
	bounds := base.Bounds()
	result := image.NewRGBA(bounds)
	draw.Draw(result, bounds, base, bounds.Min, draw.Src)

	for i := range annotations {
		RenderSingleAnnotation(result, &annotations[i])
	}
	return result
}

// RenderSingleAnnotation 将单个标注渲染到图片上（也用于实时预览）
func RenderSingleAnnotation(img *image.RGBA, a *Annotation) {
	switch a.Kind {
	case KindStroke:
		renderStroke(img, a)
	case KindText:
		renderText(img, a)
	case KindHighlight:
		FillRegion(img, a.Region, a.Color)
	}
}

// StrokeSegment 立即绘制画笔路径的一段（画笔拖动时使用）
func StrokeSegment(img *image.RGBA, p0, p1 image.Point, c color.RGBA, width int) {
	drawThickLine(img, p0.X, p0.Y, p1.X, p1.Y, c, width)
}

// ---------- 高亮 ----------

// FillRegion 以半透明颜色填充区域，叠加时按渲染顺序混合
func FillRegion(img *image.RGBA, r Region, c color.RGBA) {
	rect := r.Rect().Intersect(img.Bounds())
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			setPixelBlend(img, x, y, c)
		}
	}
}

// ---------- 自由画笔 ----------

func renderStroke(img *image.RGBA, a *Annotation) {
	if len(a.Points) < 2 {
		return
	}
	for i := 1; i < len(a.Points); i++ {
		p0 := a.Points[i-1]
		p1 := a.Points[i]
		drawThickLine(img, p0.X, p0.Y, p1.X, p1.Y, a.Color, a.LineWidth)
	}
}

// ========== 辅助绘图函数 ==========

// drawThickLine 使用距离场抗锯齿绘制线段（圆头端点）
func drawThickLine(img *image.RGBA, x1, y1, x2, y2 int, c color.RGBA, width int) {
	halfW := float64(width) / 2.0
	if halfW < 0.75 {
		halfW = 0.75
	}

	dx := float64(x2 - x1)
	dy := float64(y2 - y1)
	length := math.Hypot(dx, dy)

	if length < 0.5 {
		drawFilledCircleAA(img, float64(x1), float64(y1), halfW, c)
		return
	}

	ux, uy := dx/length, dy/length
	nx, ny := -uy, ux

	// 扫描包围盒，裁剪到图片范围
	margin := int(halfW) + 2
	box := image.Rect(min(x1, x2)-margin, min(y1, y2)-margin, max(x1, x2)+margin+1, max(y1, y2)+margin+1)
	box = box.Intersect(img.Bounds())

	x1f, y1f := float64(x1), float64(y1)
	x2f, y2f := float64(x2), float64(y2)

	for py := box.Min.Y; py < box.Max.Y; py++ {
		for px := box.Min.X; px < box.Max.X; px++ {
			vx := float64(px) - x1f
			vy := float64(py) - y1f
			along := vx*ux + vy*uy

			var dist float64
			switch {
			case along <= 0:
				dist = math.Hypot(vx, vy)
			case along >= length:
				dist = math.Hypot(float64(px)-x2f, float64(py)-y2f)
			default:
				dist = math.Abs(vx*nx + vy*ny)
			}

			renderAAPixel(img, px, py, c, dist, halfW)
		}
	}
}

// renderAAPixel 根据距离渲染抗锯齿像素
func renderAAPixel(img *image.RGBA, x, y int, c color.RGBA, dist, halfW float64) {
	if dist > halfW+0.5 {
		return
	}
	if dist <= halfW-0.5 {
		setPixelBlend(img, x, y, c)
		return
	}
	frac := halfW + 0.5 - dist
	ac := color.RGBA{c.R, c.G, c.B, uint8(float64(c.A) * frac)}
	setPixelBlend(img, x, y, ac)
}

// drawFilledCircleAA 绘制抗锯齿填充圆
func drawFilledCircleAA(img *image.RGBA, cx, cy, r float64, c color.RGBA) {
	ri := int(r) + 2
	cxi, cyi := int(cx), int(cy)
	for py := cyi - ri; py <= cyi+ri; py++ {
		for px := cxi - ri; px <= cxi+ri; px++ {
			dist := math.Hypot(float64(px)-cx, float64(py)-cy)
			renderAAPixel(img, px, py, c, dist, r)
		}
	}
}

// setPixelBlend 混合绘制像素（c 为非预乘颜色）
func setPixelBlend(img *image.RGBA, x, y int, c color.RGBA) {
	bounds := img.Bounds()
	if x < bounds.Min.X || x >= bounds.Max.X || y < bounds.Min.Y || y >= bounds.Max.Y {
		return
	}
	if c.A == 0 {
		return
	}

	off := (y-bounds.Min.Y)*img.Stride + (x-bounds.Min.X)*4

	if c.A == 255 {
		img.Pix[off+0] = c.R
		img.Pix[off+1] = c.G
		img.Pix[off+2] = c.B
		img.Pix[off+3] = 255
		return
	}

	srcA := uint32(c.A)
	invA := 255 - srcA

	img.Pix[off+0] = uint8((uint32(c.R)*srcA + uint32(img.Pix[off+0])*invA) / 255)
	img.Pix[off+1] = uint8((uint32(c.G)*srcA + uint32(img.Pix[off+1])*invA) / 255)
	img.Pix[off+2] = uint8((uint32(c.B)*srcA + uint32(img.Pix[off+2])*invA) / 255)
	img.Pix[off+3] = uint8(srcA + uint32(img.Pix[off+3])*invA/255)
}
