package views

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/smartapp/smartapp/internal/imagebg"
)

const (
	MsgSelectImage    = "Please select an image first"
	MsgInvalidImage   = "Please upload a valid image file"
	MsgRemoved        = "Background removed successfully!"
	MsgChanged        = "Background changed successfully!"
	MsgProcessFailFmt = "Error: "
	MsgProcessDefault = "Failed to process image."
)

// Background is the background removal/replacement page.
type Background struct {
	FormState
	processor ImageProcessor
	fileName  string
	data      []byte
	mode      imagebg.Mode
	color     string
	result    *imagebg.Result
}

// NewBackground creates the page in remove mode with a white replacement color.
func NewBackground(processor ImageProcessor) *Background {
	return &Background{processor: processor, mode: imagebg.ModeRemove, color: imagebg.DefaultColor}
}

// SelectFile sets the image to process. Files that are not images are
// refused and leave the previous selection in place.
func (v *Background) SelectFile(name string, data []byte) Message {
	if _, err := imagebg.ValidateImage(data); err != nil {
		return v.reject(MsgInvalidImage)
	}
	v.fileName = name
	v.data = data
	v.result = nil
	v.Reset()
	return Message{}
}

// SetMode switches between remove and change, discarding any result.
func (v *Background) SetMode(m imagebg.Mode) {
	if m != v.mode {
		v.result = nil
	}
	v.mode = m
}

// SetColor sets the replacement color used in change mode.
func (v *Background) SetColor(color string) {
	if color != "" {
		v.color = color
	}
}

func (v *Background) Mode() imagebg.Mode      { return v.mode }
func (v *Background) Color() string           { return v.color }
func (v *Background) FileName() string        { return v.fileName }
func (v *Background) Result() *imagebg.Result { return v.result }

// Process sends the selected image to the service.
func (v *Background) Process(ctx context.Context) (Outcome, error) {
	if len(v.data) == 0 {
		return Outcome{Message: v.reject(MsgSelectImage)}, nil
	}
	if !v.Begin() {
		return Outcome{}, ErrBusy
	}
	res, err := v.processor.Process(ctx, imagebg.Request{
		Mode:     v.mode,
		FileName: v.fileName,
		Data:     v.data,
		Color:    v.color,
	})
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("mode", string(v.mode)).Msg("error processing image")
		return Outcome{Message: v.fail(processMessage(err))}, nil
	}
	v.result = res
	if v.mode == imagebg.ModeChange {
		return Outcome{Message: v.succeed(MsgChanged)}, nil
	}
	return Outcome{Message: v.succeed(MsgRemoved)}, nil
}

func processMessage(err error) string {
	if errors.Is(err, imagebg.ErrInvalidImage) && !errors.Is(err, imagebg.ErrInvalidColor) {
		return MsgInvalidImage
	}
	msg := err.Error()
	if msg == "" {
		msg = MsgProcessDefault
	}
	return MsgProcessFailFmt + msg
}
