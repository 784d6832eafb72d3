package util

import (
	"context"
	"io"

	"github.com/ValentinKolb/braidwood/lib/common"
	"github.com/ValentinKolb/braidwood/lib/repository"
	"github.com/VictoriaMetrics/metrics"
	"github.com/spf13/cobra"
)

var log = common.NewLogger("cmd")

// Session holds the repository a command group works on
type Session struct {
	Config common.Config
	Repo   *repository.Repository
	close  func() error
}

// StartSession binds the flags of cmd, initializes the loggers and opens the configured repository
func StartSession(ctx context.Context, cmd *cobra.Command) (*Session, error) {
	if err := BindCommandFlags(cmd); err != nil {
		return nil, err
	}

	config := GetConfig()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if err := common.InitLoggers(config); err != nil {
		return nil, err
	}
	log.Debugf("configuration:%s", config.String())

	repo, closer, err := OpenRepository(ctx, config)
	if err != nil {
		return nil, err
	}
	return &Session{Config: config, Repo: repo, close: closer}, nil
}

// Finish releases the backend and writes the collected metrics to out if they were requested
func (s *Session) Finish(out io.Writer) error {
	if s == nil {
		return nil
	}
	if s.Config.Metrics {
		metrics.WritePrometheus(out, false)
	}
	if err := s.close(); err != nil {
		log.Warningf("failed to close backend %s: %v", s.Config.Backend, err)
		return err
	}
	return nil
}
