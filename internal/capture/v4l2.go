package capture

import (
	"fmt"
	"image"

	"github.com/blackjack/webcam"
)

// YUYV 4:2:2, the format essentially every UVC webcam supports.
const pixelFormatYUYV = webcam.PixelFormat(0x56595559)

// V4L2Camera reads frames from a Video4Linux device and converts them to
// grayscale by taking the luma plane of the YUYV stream.
type V4L2Camera struct {
	cam    *webcam.Webcam
	width  int
	height int
}

func OpenV4L2(device string, width, height int) (*V4L2Camera, error) {
	cam, err := webcam.Open(device)
	if err != nil {
		return nil, fmt.Errorf("failed to open camera %s: %w", device, err)
	}

	if _, ok := cam.GetSupportedFormats()[pixelFormatYUYV]; !ok {
		cam.Close()
		return nil, fmt.Errorf("camera %s does not support YUYV", device)
	}

	_, w, h, err := cam.SetImageFormat(pixelFormatYUYV, uint32(width), uint32(height))
	if err != nil {
		cam.Close()
		return nil, fmt.Errorf("failed to set image format: %w", err)
	}

	if err := cam.StartStreaming(); err != nil {
		cam.Close()
		return nil, fmt.Errorf("failed to start streaming: %w", err)
	}

	return &V4L2Camera{cam: cam, width: int(w), height: int(h)}, nil
}

func (c *V4L2Camera) ReadFrame() (*image.Gray, error) {
	if err := c.cam.WaitForFrame(5); err != nil {
		return nil, fmt.Errorf("no frame from camera: %w", err)
	}

	raw, err := c.cam.ReadFrame()
	if err != nil {
		return nil, fmt.Errorf("failed to read frame: %w", err)
	}
	if len(raw) < c.width*c.height*2 {
		return nil, fmt.Errorf("short frame: got %d bytes", len(raw))
	}

	// YUYV packs two pixels into four bytes as Y0 U Y1 V; the luma values
	// sit at every even offset.
	img := image.NewGray(image.Rect(0, 0, c.width, c.height))
	for i := 0; i < c.width*c.height; i++ {
		img.Pix[i] = raw[i*2]
	}
	return img, nil
}

func (c *V4L2Camera) Close() error {
	c.cam.StopStreaming()
	return c.cam.Close()
}
