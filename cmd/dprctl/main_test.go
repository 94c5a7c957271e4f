package main

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExitErrorMessage(t *testing.T) {
	assert.Equal(t, "exit status 2", (&exitError{code: 2}).Error())
	assert.Equal(t, "smtp down", (&exitError{code: 1, err: errors.New("smtp down")}).Error())
}

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"send-daily", "export", "test-email", "serve"} {
		assert.True(t, names[want], want)
	}

	force := sendDailyCmd.Flags().Lookup("force")
	if assert.NotNil(t, force) {
		assert.Equal(t, "f", force.Shorthand)
	}
}
