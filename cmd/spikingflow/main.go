// Copyright (c) 2020, The SpikingFlow Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// spikingflow is the command line front end for the spikingflow
// framework: small clock-driven demos and neuromorphic dataset
// preparation.
package main

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var verbose bool

func main() {
	root := &cobra.Command{
		Use:   "spikingflow",
		Short: "spiking neural network simulation tools",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
			if verbose {
				log.SetLevel(log.DebugLevel)
			}
		},
		SilenceUsage: true,
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(lifCmd())
	root.AddCommand(framesCmd())
	root.AddCommand(gestureCmd())
	root.AddCommand(tempotronCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
