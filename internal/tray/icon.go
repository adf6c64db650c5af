package tray

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
	"runtime"
)

const iconSize = 16

var (
	iconPaper  = color.RGBA{250, 250, 250, 255}
	iconEdge   = color.RGBA{90, 90, 90, 255}
	iconFold   = color.RGBA{200, 200, 200, 255}
	iconLine   = color.RGBA{150, 150, 150, 255}
	iconMarker = color.RGBA{255, 220, 0, 255}
)

// getIcon 托盘图标：Windows 使用 ICO，其他平台使用 PNG
func getIcon() []byte {
	img := pageIcon()
	if runtime.GOOS == "windows" {
		return encodeICO(img)
	}
	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}

// pageIcon 画一张折角纸页，中间一条黄色高亮
func pageIcon() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, iconSize, iconSize))
	const left, right, top, bottom, fold = 2, 13, 0, 15, 4

	for y := top; y <= bottom; y++ {
		for x := left; x <= right; x++ {
			// 右上角折角
			if x > right-fold && y < top+fold && x-(right-fold) > y-top {
				continue
			}
			c := iconPaper
			switch {
			case x == left || x == right || y == top || y == bottom:
				c = iconEdge
			case x-(right-fold) == y-top && y < top+fold:
				c = iconEdge
			case x > right-fold && y < top+fold:
				c = iconFold
			case y == 8 && x > left+1 && x < right-1:
				c = iconMarker
			case (y == 5 || y == 11 || y == 13) && x > left+1 && x < right-1:
				c = iconLine
			}
			img.SetRGBA(x, y, c)
		}
	}
	for x := left + 2; x < right-1; x++ {
		img.SetRGBA(x, 7, iconMarker)
		img.SetRGBA(x, 9, iconMarker)
	}
	return img
}

// encodeICO 以 32 位 BMP 数据写出单图 ICO
func encodeICO(img *image.RGBA) []byte {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	maskStride := ((w + 31) / 32) * 4
	imageSize := 40 + w*h*4 + maskStride*h

	var buf bytes.Buffer
	le := binary.LittleEndian

	// ICONDIR
	_ = binary.Write(&buf, le, [3]uint16{0, 1, 1})
	// ICONDIRENTRY
	buf.Write([]byte{byte(w), byte(h), 0, 0})
	_ = binary.Write(&buf, le, [2]uint16{1, 32})
	_ = binary.Write(&buf, le, [2]uint32{uint32(imageSize), 22})

	// BITMAPINFOHEADER，高度为 XOR + AND 两部分
	_ = binary.Write(&buf, le, struct {
		Size                   uint32
		Width, Height          int32
		Planes, BitCount       uint16
		Compression, SizeImage uint32
		XPels, YPels           int32
		ClrUsed, ClrImportant  uint32
	}{40, int32(w), int32(h * 2), 1, 32, 0, 0, 0, 0, 0, 0})

	// 像素自下而上，BGRA
	for y := h - 1; y >= 0; y-- {
		for x := 0; x < w; x++ {
			c := img.RGBAAt(x, y)
			buf.Write([]byte{c.B, c.G, c.R, c.A})
		}
	}
	// AND 掩码全 0，透明度由 alpha 通道决定
	buf.Write(make([]byte, maskStride*h))

	return buf.Bytes()
}
