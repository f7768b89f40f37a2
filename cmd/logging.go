package cmd

import (
	"fmt"
	"strings"

	"github.com/vibast-solutions/ms-go-journal/config"

	"github.com/sirupsen/logrus"
)

func configureLogging(cfg config.LogConfig) error {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return err
	}
	logrus.SetLevel(level)

	switch strings.ToLower(cfg.Format) {
	case "json", "":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	case "text":
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return fmt.Errorf("unknown log format %q", cfg.Format)
	}
	return nil
}
