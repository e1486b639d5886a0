package report

// Placement is where an image lands on the page, in page units.
type Placement struct {
	X, Y, W, H float64
}

// FitImage scales an image into the page inside margin on every side, keeping its
// aspect ratio: full usable width first, then shrink to the usable height if the
// result is too tall. The image is centred horizontally and pinned to the top margin.
func FitImage(imgW, imgH, pageW, pageH, margin float64) Placement {
	ratio := imgW / imgH

	w := pageW - 2*margin
	h := w / ratio
	if h > pageH-2*margin {
		h = pageH - 2*margin
		w = h * ratio
	}

	return Placement{
		X: (pageW - w) / 2,
		Y: margin,
		W: w,
		H: h,
	}
}
