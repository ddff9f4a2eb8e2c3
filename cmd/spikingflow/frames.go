// Copyright (c) 2020, The SpikingFlow Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/spikingflow/spikingflow/datasets"
)

func framesCmd() *cobra.Command {
	var (
		inDir     string
		outDir    string
		height    int
		width     int
		framesNum int
		split     string
		norm      string
	)
	cmd := &cobra.Command{
		Use:   "frames",
		Short: "integrate cached event tables into frame tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			sb, err := datasets.SplitByFromString(split)
			if err != nil {
				return err
			}
			nm, err := datasets.NormFromString(norm)
			if err != nil {
				return err
			}
			log.Infof("converting events in %s to %d-frame tables in %s", inDir, framesNum, outDir)
			return datasets.ConvertEventsDirToFramesDir(inDir, outDir, height, width, framesNum, sb, nm)
		},
	}
	fs := cmd.Flags()
	fs.StringVarP(&inDir, "in", "i", "", "directory of events .tsv files")
	fs.StringVarP(&outDir, "out", "o", "", "output directory for frames .tsv files")
	fs.IntVar(&height, "height", 128, "sensor height in pixels")
	fs.IntVar(&width, "width", 128, "sensor width in pixels")
	fs.IntVar(&framesNum, "frames", 10, "frames per recording")
	fs.StringVar(&split, "split", "number", "frame split mode: time or number")
	fs.StringVar(&norm, "norm", "max", "per-frame normalization: none, frequency, max or zscore")
	cmd.MarkFlagRequired("in")
	cmd.MarkFlagRequired("out")
	return cmd
}
