package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"meetgrid/internal/model"
)

// Stripe geometry used by the preview server when no size is requested.
const (
	StripeWidth  = 960
	StripeHeight = 32
)

// Stripe paints one equal-width segment per day, colored by level, with a
// one-pixel gap between segments.
//
//   - width must be >= len(days) so every segment is at least one pixel wide.
//   - 빈 입력이면 level 0 블록 하나로 채운다.
//   - 나머지 픽셀(정수 나눗셈 잔여)은 마지막 세그먼트가 가져간다.
func Stripe(days []model.DayLevel, scale Scale, width, height int) (*image.NRGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("render: invalid stripe size %dx%d", width, height)
	}
	if len(days) == 0 {
		days = []model.DayLevel{{Level: 0}}
	}
	if width < len(days) {
		return nil, fmt.Errorf("render: stripe width %d too small for %d days", width, len(days))
	}

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	gap := 1
	if width < len(days)*2 {
		gap = 0
	}
	seg := width / len(days)

	// 배경은 투명으로 두고 세그먼트만 칠한다. stride 를 직접 써서 Set() 호출을 피한다.
	for i, d := range days {
		c := scale.Color(d.Level)
		x0 := i * seg
		x1 := x0 + seg - gap
		if i == len(days)-1 {
			x1 = width
		}
		fillRect(img, x0, x1, c)
	}
	return img, nil
}

func fillRect(img *image.NRGBA, x0, x1 int, c color.NRGBA) {
	b := img.Bounds()
	for py := 0; py < b.Dy(); py++ {
		rowOff := py * img.Stride
		for px := x0; px < x1; px++ {
			i := rowOff + px*4
			img.Pix[i+0] = c.R
			img.Pix[i+1] = c.G
			img.Pix[i+2] = c.B
			img.Pix[i+3] = c.A
		}
	}
}

// EncodePNG encodes img with default compression.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("render: encode png: %w", err)
	}
	return buf.Bytes(), nil
}
