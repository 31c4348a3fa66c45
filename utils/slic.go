package utils

import (
	"image"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

type labImage struct {
	W, H int
	Pix  []float64 // Interleaved L,a,b, len = W*H*3
}

type slicCenter struct{ l, a, b, cx, cy float64 }

func toLab(img image.Image) labImage {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	lab := labImage{W: w, H: h, Pix: make([]float64, w*h*3)}
	for y := range h {
		for x := range w {
			c, _ := colorful.MakeColor(img.At(bounds.Min.X+x, bounds.Min.Y+y))
			l, a, b := c.Lab()
			off := (y*w + x) * 3
			lab.Pix[off], lab.Pix[off+1], lab.Pix[off+2] = l, a, b
		}
	}
	return lab
}

// SLIC segments img into roughly numSuperpixels compact superpixels in Lab
// space and returns a contiguous label map with the label count.
func SLIC(img image.Image, numSuperpixels int) ([]int, int) {
	lab := toLab(img)
	if lab.W == 0 || lab.H == 0 {
		return nil, 0
	}
	numSuperpixels = max(numSuperpixels, 1)
	step := max(int(math.Sqrt(float64(lab.W*lab.H)/float64(numSuperpixels))), 1)

	centers := seedCenters(lab, step)
	clusters := make([]int, lab.W*lab.H)
	for range 10 {
		assignPixels(lab, centers, clusters, step)
		updateCenters(lab, centers, clusters)
	}
	labels := enforceConnectivity(clusters, lab.W, lab.H, len(centers))
	return CompactLabels(labels)
}

// seedCenters places centers on a regular grid, nudged to the lowest
// gradient in their 3x3 neighbourhood.
func seedCenters(lab labImage, step int) []slicCenter {
	w, h := lab.W, lab.H
	at := func(x, y int) float64 { return lab.Pix[(y*w+x)*3] }
	center := func(x, y int) slicCenter {
		off := (y*w + x) * 3
		return slicCenter{lab.Pix[off], lab.Pix[off+1], lab.Pix[off+2], float64(x), float64(y)}
	}

	var centers []slicCenter
	for cy := step; cy < h-step/2; cy += step {
		for cx := step; cx < w-step/2; cx += step {
			bestGrad := math.MaxFloat64
			bx, by := cx, cy
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					nx, ny := cx+dx, cy+dy
					if nx < 0 || nx >= w-1 || ny < 0 || ny >= h-1 {
						continue
					}
					grad := math.Abs(at(nx, ny+1)-at(nx, ny)) + math.Abs(at(nx+1, ny)-at(nx, ny))
					if grad < bestGrad {
						bestGrad = grad
						bx, by = nx, ny
					}
				}
			}
			centers = append(centers, center(bx, by))
		}
	}
	if len(centers) == 0 {
		centers = append(centers, center(w/2, h/2))
	}
	return centers
}

func assignPixels(lab labImage, centers []slicCenter, clusters []int, step int) {
	const nc = 40.0
	ns := float64(step)
	w, h := lab.W, lab.H
	dist := make([]float64, w*h)
	for i := range dist {
		dist[i] = math.MaxFloat64
		clusters[i] = -1
	}
	for ci, c := range centers {
		x0, x1 := max(int(c.cx)-step, 0), min(int(c.cx)+step, w)
		y0, y1 := max(int(c.cy)-step, 0), min(int(c.cy)+step, h)
		for y := y0; y < y1; y++ {
			for x := x0; x < x1; x++ {
				p := y*w + x
				off := p * 3
				dL := lab.Pix[off] - c.l
				dA := lab.Pix[off+1] - c.a
				dB := lab.Pix[off+2] - c.b
				dx := float64(x) - c.cx
				dy := float64(y) - c.cy
				dc2 := dL*dL + dA*dA + dB*dB
				ds2 := dx*dx + dy*dy
				d := math.Sqrt(dc2/(nc*nc) + ds2/(ns*ns))
				if d < dist[p] {
					dist[p] = d
					clusters[p] = ci
				}
			}
		}
	}
}

func updateCenters(lab labImage, centers []slicCenter, clusters []int) {
	type acc struct {
		l, a, b, sx, sy float64
		n               int
	}
	sums := make([]acc, len(centers))
	for p, ci := range clusters {
		if ci < 0 {
			continue
		}
		off := p * 3
		sums[ci].l += lab.Pix[off]
		sums[ci].a += lab.Pix[off+1]
		sums[ci].b += lab.Pix[off+2]
		sums[ci].sx += float64(p % lab.W)
		sums[ci].sy += float64(p / lab.W)
		sums[ci].n++
	}
	for ci := range centers {
		if sums[ci].n == 0 {
			continue
		}
		n := float64(sums[ci].n)
		centers[ci] = slicCenter{sums[ci].l / n, sums[ci].a / n, sums[ci].b / n, sums[ci].sx / n, sums[ci].sy / n}
	}
}

// enforceConnectivity relabels 4-connected components and folds components
// smaller than a quarter of the expected superpixel area into a neighbour.
func enforceConnectivity(clusters []int, w, h, numCenters int) []int {
	minSize := max(w*h/max(numCenters, 1), 1) >> 2
	dx4 := [4]int{-1, 0, 1, 0}
	dy4 := [4]int{0, -1, 0, 1}
	out := make([]int, w*h)
	for i := range out {
		out[i] = -1
	}
	label := 0
	elems := make([]int, 0, 64)
	for start := range out {
		if out[start] != -1 {
			continue
		}
		x, y := start%w, start/w
		adjLabel := label
		for k := range 4 {
			nx, ny := x+dx4[k], y+dy4[k]
			if nx >= 0 && nx < w && ny >= 0 && ny < h && out[ny*w+nx] >= 0 {
				adjLabel = out[ny*w+nx]
				break
			}
		}

		elems = append(elems[:0], start)
		out[start] = label
		for c := 0; c < len(elems); c++ {
			cur := elems[c]
			cx, cy := cur%w, cur/w
			for k := range 4 {
				nx, ny := cx+dx4[k], cy+dy4[k]
				if nx < 0 || nx >= w || ny < 0 || ny >= h {
					continue
				}
				n := ny*w + nx
				if out[n] == -1 && clusters[cur] == clusters[n] {
					out[n] = label
					elems = append(elems, n)
				}
			}
		}
		if len(elems) <= minSize && adjLabel != label {
			for _, e := range elems {
				out[e] = adjLabel
			}
			continue
		}
		label++
	}
	return out
}
