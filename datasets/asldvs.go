// Copyright (c) 2020, The SpikingFlow Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package datasets

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/emer/etable/etensor"
	log "github.com/sirupsen/logrus"
)

// ASL-DVS: 24 American Sign Language handshapes (letters a-y excluding
// the motion letter j) recorded with a 240x180 DVS camera, 4200
// recordings per class (Bi et al. 2019).  The archive must be
// downloaded manually from ASLDVSURL and extracted into root/events
// with one subdirectory per class.
const (
	ASLDVSWidth      = 240
	ASLDVSHeight     = 180
	ASLDVSPerClass   = 4200
	ASLDVSURL        = "https://www.dropbox.com/sh/ibq0jsicatn7l6r/AACNrNELV56rs1YInMWUs9CAa?dl=0"
	ASLDVSSplitRatio = 0.9
)

// ASLDVSLabels lists the class names in label order.
var ASLDVSLabels = []string{
	"a", "b", "c", "d", "e", "f", "g", "h", "i", "k", "l", "m",
	"n", "o", "p", "q", "r", "s", "t", "u", "v", "w", "x", "y",
}

// ASLDVS prepares and serves the ASL-DVS dataset.  Recordings within
// each class are ordered by file name; the first SplitRatio of them form
// the training set and the rest the test set.
type ASLDVS struct {
	Root       string   `desc:"dataset root directory"`
	Train      bool     `desc:"serve the training split instead of the test split"`
	SplitRatio float64  `def:"0.9" desc:"fraction of each class used for training"`
	UseFrames  bool     `def:"true" desc:"serve integrated frames instead of raw events"`
	FramesNum  int      `def:"10" desc:"frames per recording"`
	Split      SplitBy  `desc:"how events are partitioned into frames"`
	Norm       Norm     `desc:"per-frame normalization"`
	Files      []string `desc:"per-item data file paths"`
	Labels     []int    `desc:"per-item 0-based labels"`
}

// Defaults sets the standard split and frame integration parameters.
func (as *ASLDVS) Defaults() {
	as.SplitRatio = ASLDVSSplitRatio
	as.UseFrames = true
	as.FramesNum = 10
	as.Split = SplitByNumber
	as.Norm = NormMax
}

// Config prepares the dataset under root, converting each class
// directory of MAT recordings into cached frame tables when needed, and
// indexes the item files for the selected split.
func (as *ASLDVS) Config(root string) error {
	as.Root = root
	eventsRoot := filepath.Join(root, "events")
	if _, err := os.Stat(eventsRoot); os.IsNotExist(err) {
		return fmt.Errorf("%s not found: download from %s and extract to %s manually", eventsRoot, ASLDVSURL, root)
	}

	dataDir := eventsRoot
	ext := ".mat"
	if as.UseFrames {
		framesRoot := filepath.Join(root, FramesDirName(as.FramesNum, as.Split, as.Norm))
		if _, err := os.Stat(framesRoot); os.IsNotExist(err) {
			if err := os.MkdirAll(framesRoot, 0755); err != nil {
				return err
			}
			if err := as.createFrames(eventsRoot, framesRoot); err != nil {
				return err
			}
		} else {
			log.Infof("frames data root %s already exists", framesRoot)
		}
		dataDir = framesRoot
		ext = ".tsv"
	}

	lo := 1
	hi := int(as.SplitRatio * ASLDVSPerClass)
	if !as.Train {
		lo = hi + 1
		hi = ASLDVSPerClass
	}
	as.Files = as.Files[:0]
	as.Labels = as.Labels[:0]
	for li, class := range ASLDVSLabels {
		classDir := filepath.Join(dataDir, class)
		for i := lo; i <= hi; i++ {
			as.Files = append(as.Files, filepath.Join(classDir, fmt.Sprintf("%s_%04d%s", class, i, ext)))
			as.Labels = append(as.Labels, li)
		}
	}
	return nil
}

// createFrames converts every class directory concurrently, one worker
// per class bounded by GOMAXPROCS.
func (as *ASLDVS) createFrames(eventsRoot, framesRoot string) error {
	sem := make(chan struct{}, runtime.GOMAXPROCS(0))
	var wg sync.WaitGroup
	errs := make([]error, len(ASLDVSLabels))
	for li, class := range ASLDVSLabels {
		wg.Add(1)
		go func(li int, class string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			src := filepath.Join(eventsRoot, class)
			dst := filepath.Join(framesRoot, class)
			if err := os.MkdirAll(dst, 0755); err != nil {
				errs[li] = err
				return
			}
			log.Infof("converting events in %s to frames in %s", src, dst)
			errs[li] = as.convertClass(src, dst)
		}(li, class)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// convertClass integrates every MAT recording in src into a frames .tsv
// in dst.
func (as *ASLDVS) convertClass(src, dst string) error {
	fls, err := listFiles(src, ".mat")
	if err != nil {
		return err
	}
	for _, fnm := range fls {
		vars, err := ReadMATFile(fnm)
		if err != nil {
			return fmt.Errorf("convert %s: %w", fnm, err)
		}
		ev, err := EventsFromMAT(vars)
		if err != nil {
			return fmt.Errorf("convert %s: %w", fnm, err)
		}
		frames, err := IntegrateToFrames(ev, ASLDVSHeight, ASLDVSWidth, as.FramesNum, as.Split, as.Norm)
		if err != nil {
			return fmt.Errorf("convert %s: %w", fnm, err)
		}
		base := filepath.Base(fnm)
		out := filepath.Join(dst, base[:len(base)-len(".mat")]+".tsv")
		if err := SaveFrames(frames, out); err != nil {
			return err
		}
	}
	return nil
}

// Len returns the number of items in the selected split.
func (as *ASLDVS) Len() int {
	return len(as.Files)
}

// Item returns the i-th recording as a [FramesNum, 2, H, W] tensor plus
// its 0-based label.
func (as *ASLDVS) Item(i int) (*etensor.Float32, int, error) {
	fnm := as.Files[i]
	lbl := as.Labels[i]
	if as.UseFrames {
		frames, err := OpenFrames(fnm)
		return frames, lbl, err
	}
	vars, err := ReadMATFile(fnm)
	if err != nil {
		return nil, 0, err
	}
	ev, err := EventsFromMAT(vars)
	if err != nil {
		return nil, 0, err
	}
	frames, err := IntegrateToFrames(ev, ASLDVSHeight, ASLDVSWidth, as.FramesNum, as.Split, as.Norm)
	return frames, lbl, err
}
