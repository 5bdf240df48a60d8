package models

// Image represents a square 2D image used as tomography ground truth or as a
// reconstruction result
type Image struct {
	// Data holds the pixel values in row-major order: Data[i*Size+j]
	Data []float64

	// Size is the side length of the image in pixels
	Size int
}

// NewImage allocates a zero-filled image with the given side length
func NewImage(size int) *Image {
	return &Image{
		Data: make([]float64, size*size),
		Size: size,
	}
}

// At returns the value of pixel (i, j)
func (img *Image) At(i, j int) float64 {
	return img.Data[i*img.Size+j]
}

// Set assigns the value of pixel (i, j)
func (img *Image) Set(i, j int, v float64) {
	img.Data[i*img.Size+j] = v
}

// Len returns the number of pixels
func (img *Image) Len() int {
	return len(img.Data)
}

// Clone returns a deep copy of the image
func (img *Image) Clone() *Image {
	data := make([]float64, len(img.Data))
	copy(data, img.Data)
	return &Image{Data: data, Size: img.Size}
}

// Sinogram holds projection measurements arranged by direction and detector bin
type Sinogram struct {
	// Data is the measurement vector of length Dirs*Bins, direction-major
	Data []float64

	// Dirs is the number of projection directions
	Dirs int

	// Bins is the number of detector bins per direction
	Bins int
}

// NewSinogram allocates a zero-filled sinogram
func NewSinogram(dirs, bins int) *Sinogram {
	return &Sinogram{
		Data: make([]float64, dirs*bins),
		Dirs: dirs,
		Bins: bins,
	}
}

// Projection returns the detector readings for direction k. The returned slice
// aliases the sinogram data.
func (s *Sinogram) Projection(k int) []float64 {
	return s.Data[k*s.Bins : (k+1)*s.Bins]
}

// Clone returns a deep copy of the sinogram
func (s *Sinogram) Clone() *Sinogram {
	data := make([]float64, len(s.Data))
	copy(data, s.Data)
	return &Sinogram{Data: data, Dirs: s.Dirs, Bins: s.Bins}
}

// Reconstruction is the output of one reconstruction method
type Reconstruction struct {
	// Method names the algorithm that produced the image (lasso, ridge, fbp)
	Method string

	// Image is the reconstructed image
	Image *Image

	// Iterations is the number of solver iterations, zero for direct methods
	Iterations int

	// Converged reports whether an iterative solver met its tolerance
	Converged bool
}
