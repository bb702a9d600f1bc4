package views

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartapp/smartapp/internal/imagebg"
	"github.com/smartapp/smartapp/pkg/api"
)

func TestFormStateBusyGuard(t *testing.T) {
	var f FormState
	assert.Equal(t, Idle, f.State())
	require.True(t, f.Begin())
	assert.False(t, f.Begin())
	assert.True(t, f.Submitting())

	m := f.fail("nope")
	assert.True(t, m.IsError())
	assert.Equal(t, "error", f.State().String())
	assert.True(t, f.Begin())

	f.Reset()
	assert.Equal(t, Idle, f.State())
	assert.Empty(t, f.Message().Text)
}

func TestShowNavbar(t *testing.T) {
	assert.False(t, ShowNavbar("/"))
	assert.False(t, ShowNavbar("/register"))
	for _, p := range []string{PathDashboard, PathStudents, PathAadhaar, PathBackground, EditStudentPath("4")} {
		assert.True(t, ShowNavbar(p), p)
	}
	assert.Equal(t, "/edit-student/4", EditStudentPath("4"))
	assert.Len(t, DashboardCards(), 4)
}

func TestHumanizeKey(t *testing.T) {
	assert.Equal(t, "Father Name", HumanizeKey("father_name"))
	assert.Equal(t, "Dob", HumanizeKey("dob"))
	assert.Equal(t, "Aadhaar Number", HumanizeKey("aadhaar_number"))
}

func TestAadhaarExtract(t *testing.T) {
	b := &fakeBackend{}
	v := NewAadhaar(b)

	out, err := v.Extract(context.Background())
	require.NoError(t, err)
	assert.Equal(t, MsgSelectFile, out.Message.Text)
	assert.Empty(t, b.Calls())

	var res api.ExtractionResult
	require.NoError(t, res.UnmarshalJSON([]byte(`{"name":"Asha","father_name":"Ravi","age":31,"verified":true}`)))
	b.extraction = &res

	v.SelectFile("card.png", pngData)
	out, err = v.Extract(context.Background())
	require.NoError(t, err)
	assert.Equal(t, MsgExtractSuccess, out.Message.Text)
	rows := v.Rows()
	require.Len(t, rows, 4)
	assert.Equal(t, Row{Key: "father_name", Label: "Father Name", Value: "Ravi"}, rows[1])
	assert.Equal(t, "31", rows[2].Value)
	assert.Equal(t, "true", rows[3].Value)

	b.extractErr = errors.New("ocr down")
	v.SelectFile("card.png", pngData)
	assert.Nil(t, v.Result())
	out, err = v.Extract(context.Background())
	require.NoError(t, err)
	assert.Equal(t, MsgExtractFailed, out.Message.Text)
	assert.Nil(t, v.Rows())
}

func TestBackgroundRejectsNonImage(t *testing.T) {
	p := &fakeProcessor{}
	v := NewBackground(p)
	m := v.SelectFile("notes.txt", []byte("hello"))
	assert.Equal(t, MsgInvalidImage, m.Text)
	assert.Empty(t, v.FileName())

	out, err := v.Process(context.Background())
	require.NoError(t, err)
	assert.Equal(t, MsgSelectImage, out.Message.Text)
	assert.Empty(t, p.reqs)
}

func TestBackgroundProcess(t *testing.T) {
	p := &fakeProcessor{}
	v := NewBackground(p)
	require.Empty(t, v.SelectFile("me.png", pngData).Text)

	out, err := v.Process(context.Background())
	require.NoError(t, err)
	assert.Equal(t, MsgRemoved, out.Message.Text)
	require.NotNil(t, v.Result())

	v.SetMode(imagebg.ModeChange)
	assert.Nil(t, v.Result())
	v.SetColor("#00ff00")
	out, err = v.Process(context.Background())
	require.NoError(t, err)
	assert.Equal(t, MsgChanged, out.Message.Text)
	require.Len(t, p.reqs, 2)
	assert.Equal(t, imagebg.ModeChange, p.reqs[1].Mode)
	assert.Equal(t, "#00ff00", p.reqs[1].Color)

	p.err = imagebg.ErrImageService.New("quota exceeded")
	out, err = v.Process(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Error: quota exceeded", out.Message.Text)
	assert.Equal(t, Failed, v.State())

	p.err = imagebg.ErrInvalidColor
	out, _ = v.Process(context.Background())
	assert.Equal(t, "Error: background color must look like #rrggbb", out.Message.Text)
}
