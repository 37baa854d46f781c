package main

import (
	"context"
	"fmt"

	"github.com/edubanco/recursos/core"
)

// flushSessions drops every stored session; every user has to log in again.
func (cli *commandLine) flushSessions() error {
	if err := cli.store.DeleteAll(context.Background()); err != nil {
		return err
	}
	fmt.Println("sessions flushed")
	return nil
}

// flushCache drops the whole view cache by its known key prefixes.
func (cli *commandLine) flushCache() error {
	err := cli.cache.Invalidate(context.Background(),
		core.MaterialKey(""),
		core.MaterialListKeyPrefix(),
		core.MaterialStatsKey(),
		core.UsersKeyPrefix(),
	)
	if err != nil {
		return err
	}
	fmt.Println("view cache flushed")
	return nil
}
