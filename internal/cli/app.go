package cli

import (
	"errors"
	"os"
	"time"

	"github.com/smartapp/smartapp/internal/common/httpclient"
	"github.com/smartapp/smartapp/internal/config"
	"github.com/smartapp/smartapp/internal/imagebg"
	"github.com/smartapp/smartapp/internal/session"
	"github.com/smartapp/smartapp/internal/views"
	"github.com/smartapp/smartapp/pkg/api"
)

// imageTimeout bounds calls to the image service, which can be slow on
// large photos.
const imageTimeout = 2 * time.Minute

// app is the state shared by the commands of one invocation.
type app struct {
	cfgPath string
	cfg     *config.Config
	session *session.Session
	backend *api.Client
}

var current *app

func defaultConfigPath() (string, error) {
	return config.GetDefaultConfigPath()
}

// loadApp reads the configuration at path, then .env and the environment.
// A missing file is not an error: "smartapp config" creates it.
func loadApp(path string) (*app, error) {
	cfg, err := config.LoadOrDefault(path)
	if err != nil {
		return nil, err
	}
	cwd, err := os.Getwd()
	if err == nil {
		cfg.ApplyEnv(cwd)
	}
	return &app{cfgPath: path, cfg: cfg}, nil
}

// getApp returns the invocation's state. It is only nil if the persistent
// pre-run was skipped.
func getApp() (*app, error) {
	if current == nil {
		return nil, errors.New("no configuration loaded")
	}
	return current, nil
}

// connect builds the session and backend client. The session persists its
// token in the configuration file.
func (a *app) connect() (*api.Client, error) {
	if a.backend != nil {
		return a.backend, nil
	}
	if err := a.cfg.ValidateConfig(); err != nil {
		return nil, err
	}
	sess, err := session.New(a.cfg.ServerURL, session.NewFileStore(a.cfgPath))
	if err != nil {
		return nil, err
	}
	a.session = sess
	a.backend = api.New(sess)
	return a.backend, nil
}

// images returns the background-image client.
func (a *app) images() *imagebg.Client {
	return imagebg.NewClient(a.cfg.ImageService.URL, a.cfg.ImageService.Token, httpclient.WithTimeout(imageTimeout))
}

// outcomeError turns an error message of a view into an error.
func outcomeError(out views.Outcome) error {
	if out.Message.IsError() {
		return errors.New(out.Message.Text)
	}
	return nil
}
