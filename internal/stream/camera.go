package stream

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// FrameSource produces frames for the sampler. Implementations are read
// from a single goroutine.
type FrameSource interface {
	Read() (image.Image, error)
	Close() error
}

// Camera captures frames from a local video device.
type Camera struct {
	capture *gocv.VideoCapture
	mat     gocv.Mat
}

// OpenCamera opens the device and applies the requested frame size.
func OpenCamera(deviceID, width, height int) (*Camera, error) {
	capture, err := gocv.OpenVideoCapture(deviceID)
	if err != nil {
		return nil, fmt.Errorf("open camera device %d: %w", deviceID, err)
	}
	if width > 0 {
		capture.Set(gocv.VideoCaptureFrameWidth, float64(width))
	}
	if height > 0 {
		capture.Set(gocv.VideoCaptureFrameHeight, float64(height))
	}
	return &Camera{capture: capture, mat: gocv.NewMat()}, nil
}

// Read grabs the next frame. An empty grab means the device is gone.
func (c *Camera) Read() (image.Image, error) {
	if ok := c.capture.Read(&c.mat); !ok || c.mat.Empty() {
		return nil, fmt.Errorf("camera read failed")
	}
	img, err := c.mat.ToImage()
	if err != nil {
		return nil, fmt.Errorf("convert frame: %w", err)
	}
	return img, nil
}

// Close releases the device.
func (c *Camera) Close() error {
	c.mat.Close()
	return c.capture.Close()
}
