package main

import (
	"context"
	"fmt"
	"time"
)

// healthcheck hits the cheapest read-only endpoint and reports the latency.
func (cli *commandLine) healthcheck() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	start := time.Now()
	stats, err := cli.api.GlobalStats(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("banco API ok (%s) - %d materiais\n",
		time.Since(start).Round(time.Millisecond), stats.Overview.TotalMaterials)
	return nil
}
