package annotate

import (
	"image"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

var (
	regularOnce sync.Once
	regularFont *sfnt.Font
)

// textFace 返回指定像素大小的字体；Go Regular 解析失败时退回 7x13 位图字体
func textFace(size int) font.Face {
	regularOnce.Do(func() {
		f, err := opentype.Parse(goregular.TTF)
		if err == nil {
			regularFont = f
		}
	})
	if regularFont == nil {
		return basicfont.Face7x13
	}
	face, err := opentype.NewFace(regularFont, &opentype.FaceOptions{
		Size:    float64(size),
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return basicfont.Face7x13
	}
	return face
}

// ---------- 文本 ----------

// renderText 以 Points[0] 为基线起点绘制文本
func renderText(img *image.RGBA, a *Annotation) {
	if len(a.Points) < 1 || a.Text == "" {
		return
	}

	fontSize := a.FontSize
	if fontSize <= 0 {
		fontSize = DefaultFontSize
	}

	face := textFace(fontSize)
	defer face.Close()

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(a.Color),
		Face: face,
		Dot:  fixed.P(a.Points[0].X, a.Points[0].Y),
	}
	d.DrawString(a.Text)
}
