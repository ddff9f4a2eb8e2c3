// Copyright (c) 2020, The SpikingFlow Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/spikingflow/spikingflow/datasets"
)

func gestureCmd() *cobra.Command {
	ds := &datasets.DvsGesture{}
	ds.Defaults()
	var (
		root  string
		split string
		norm  string
	)
	cmd := &cobra.Command{
		Use:   "gesture",
		Short: "prepare the DVS128 Gesture dataset: extract, slice trials, cache frames",
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if ds.Split, err = datasets.SplitByFromString(split); err != nil {
				return err
			}
			if ds.Norm, err = datasets.NormFromString(norm); err != nil {
				return err
			}
			if err := ds.Config(root); err != nil {
				return err
			}
			log.Infof("dataset ready: %d items under %s", ds.Len(), root)
			return nil
		},
	}
	fs := cmd.Flags()
	fs.StringVar(&root, "root", "dvs_gesture", "dataset root directory")
	fs.BoolVar(&ds.UseFrames, "use-frames", ds.UseFrames, "cache integrated frames")
	fs.IntVar(&ds.FramesNum, "frames", ds.FramesNum, "frames per recording")
	fs.StringVar(&split, "split", "number", "frame split mode: time or number")
	fs.StringVar(&norm, "norm", "max", "per-frame normalization: none, frequency, max or zscore")
	return cmd
}
