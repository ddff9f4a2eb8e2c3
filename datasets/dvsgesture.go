// Copyright (c) 2020, The SpikingFlow Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package datasets

import (
	"archive/tar"
	"crypto/md5"
	"encoding/csv"
	"encoding/hex"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/emer/etable/etensor"
	"github.com/klauspost/compress/gzip"
	log "github.com/sirupsen/logrus"
)

// DVS128 Gesture: 11 hand and arm gestures recorded with a 128x128 DVS
// camera (Amir et al. 2017).  The archive must be downloaded manually
// from DvsGestureURL; IBM requires a click-through.
const (
	DvsGestureWidth   = 128
	DvsGestureHeight  = 128
	DvsGestureArchive = "DvsGesture.tar.gz"
	DvsGestureMD5     = "8a5c71fb11e24e5ca5b11866ca6c00a1"
	DvsGestureURL     = "https://ibm.ent.box.com/s/3hiq58ww1pbbjrinh367ykfdf60xsfm8/folder/50167556794"
)

// DvsGestureLabels maps the 1-based labels of gesture_mapping.csv to
// gesture names.
var DvsGestureLabels = []string{
	"hand_clapping",
	"right_hand_wave",
	"left_hand_wave",
	"right_arm_clockwise",
	"right_arm_counter_clockwise",
	"left_arm_clockwise",
	"left_arm_counter_clockwise",
	"arm_roll",
	"air_drums",
	"air_guitar",
	"other_gestures",
}

// DvsGesture prepares and serves the DVS128 Gesture dataset.  Config
// builds, under Root, an events directory extracted from the archive,
// an events_tsv directory of per-gesture event tables sliced per the
// trial label files, and (with UseFrames) a frame cache directory named
// by the integration parameters.  Items then read from the cache.
type DvsGesture struct {
	Root      string   `desc:"dataset root directory"`
	UseFrames bool     `def:"true" desc:"serve integrated frames instead of raw events"`
	FramesNum int      `def:"10" desc:"frames per recording"`
	Split     SplitBy  `desc:"how events are partitioned into frames"`
	Norm      Norm     `desc:"per-frame normalization"`
	Files     []string `desc:"per-item data file paths"`
}

// Defaults sets the standard frame integration parameters.
func (ds *DvsGesture) Defaults() {
	ds.UseFrames = true
	ds.FramesNum = 10
	ds.Split = SplitByNumber
	ds.Norm = NormMax
}

// Config prepares the dataset under root, converting whatever stage is
// missing, and indexes the item files.
func (ds *DvsGesture) Config(root string) error {
	ds.Root = root
	eventsRoot := filepath.Join(root, "events")
	if _, err := os.Stat(eventsRoot); os.IsNotExist(err) {
		if err := os.MkdirAll(eventsRoot, 0755); err != nil {
			return err
		}
		if err := dvsGestureExtract(root, eventsRoot); err != nil {
			return err
		}
	} else {
		log.Infof("events data root %s already exists", eventsRoot)
	}

	tsvRoot := filepath.Join(root, "events_tsv")
	if _, err := os.Stat(tsvRoot); os.IsNotExist(err) {
		if err := os.MkdirAll(tsvRoot, 0755); err != nil {
			return err
		}
		log.Info("reading events from *.aedat and slicing per trial labels")
		if err := dvsGestureSliceTrials(eventsRoot, tsvRoot); err != nil {
			return err
		}
	} else {
		log.Infof("events table root %s already exists", tsvRoot)
	}

	dataDir := tsvRoot
	if ds.UseFrames {
		framesRoot := filepath.Join(root, FramesDirName(ds.FramesNum, ds.Split, ds.Norm))
		if _, err := os.Stat(framesRoot); os.IsNotExist(err) {
			if err := os.MkdirAll(framesRoot, 0755); err != nil {
				return err
			}
			log.Info("creating frames data")
			if err := ConvertEventsDirToFramesDir(tsvRoot, framesRoot, DvsGestureHeight, DvsGestureWidth, ds.FramesNum, ds.Split, ds.Norm); err != nil {
				return err
			}
		} else {
			log.Infof("frames data root %s already exists", framesRoot)
		}
		dataDir = framesRoot
	}

	fls, err := listFiles(dataDir, ".tsv")
	if err != nil {
		return err
	}
	ds.Files = fls
	return nil
}

// Len returns the number of items.
func (ds *DvsGesture) Len() int {
	return len(ds.Files)
}

// Item returns the i-th recording as a tensor plus its 0-based label:
// [FramesNum, 2, H, W] frames with UseFrames, raw events otherwise.
func (ds *DvsGesture) Item(i int) (*etensor.Float32, int, error) {
	fnm := ds.Files[i]
	lbl, err := labelFromFileName(fnm)
	if err != nil {
		return nil, 0, err
	}
	if ds.UseFrames {
		frames, err := OpenFrames(fnm)
		return frames, lbl, err
	}
	ev, err := OpenEvents(fnm)
	if err != nil {
		return nil, 0, err
	}
	frames, err := IntegrateToFrames(ev, DvsGestureHeight, DvsGestureWidth, ds.FramesNum, ds.Split, ds.Norm)
	return frames, lbl, err
}

// FramesDirName names a frame cache directory by its integration
// parameters, so caches with different parameters coexist.
func FramesDirName(framesNum int, split SplitBy, norm Norm) string {
	return fmt.Sprintf("frames_num_%d_split_by_%v_normalization_%v", framesNum, split, norm)
}

// ConvertEventsDirToFramesDir integrates every events .tsv in srcDir
// into a frames .tsv of the same name in dstDir.
func ConvertEventsDirToFramesDir(srcDir, dstDir string, height, width, framesNum int, split SplitBy, norm Norm) error {
	fls, err := listFiles(srcDir, ".tsv")
	if err != nil {
		return err
	}
	for _, fnm := range fls {
		ev, err := OpenEvents(fnm)
		if err != nil {
			return fmt.Errorf("convert %s: %w", fnm, err)
		}
		frames, err := IntegrateToFrames(ev, height, width, framesNum, split, norm)
		if err != nil {
			return fmt.Errorf("convert %s: %w", fnm, err)
		}
		if err := SaveFrames(frames, filepath.Join(dstDir, filepath.Base(fnm))); err != nil {
			return err
		}
	}
	return nil
}

// labelFromFileName parses the 0-based label out of a sliced event or
// frame file named base_label_j.tsv.
func labelFromFileName(fnm string) (int, error) {
	base := strings.TrimSuffix(filepath.Base(fnm), filepath.Ext(fnm))
	parts := strings.Split(base, "_")
	if len(parts) < 2 {
		return 0, fmt.Errorf("datasets: no label in file name %s", fnm)
	}
	lbl, err := strconv.Atoi(parts[len(parts)-2])
	if err != nil {
		return 0, fmt.Errorf("datasets: no label in file name %s: %w", fnm, err)
	}
	return lbl - 1, nil
}

// dvsGestureExtract verifies and unpacks the manually downloaded
// archive into eventsRoot.
func dvsGestureExtract(root, eventsRoot string) error {
	archive := filepath.Join(root, DvsGestureArchive)
	if _, err := os.Stat(archive); os.IsNotExist(err) {
		return fmt.Errorf("%s not found: download from %s and save to %s manually", DvsGestureArchive, DvsGestureURL, root)
	}
	ok, err := checkMD5(archive, DvsGestureMD5)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%s corrupted: md5 mismatch", archive)
	}
	log.Infof("extracting %s to %s", archive, eventsRoot)
	return extractTarGz(archive, eventsRoot)
}

// dvsGestureSliceTrials reads every trial .aedat in aedatDir with its
// _labels.csv and writes one events .tsv per labeled gesture segment to
// tsvDir, named base_label_j with j disambiguating repeats of the same
// label within one trial.
func dvsGestureSliceTrials(aedatDir, tsvDir string) error {
	fls, err := listFiles(aedatDir, ".aedat")
	if err != nil {
		return err
	}
	for _, fnm := range fls {
		base := strings.TrimSuffix(filepath.Base(fnm), ".aedat")
		ev, err := ReadAEDATFile(fnm)
		if err != nil {
			return fmt.Errorf("read %s: %w", fnm, err)
		}
		segs, err := readTrialLabels(filepath.Join(aedatDir, base+"_labels.csv"))
		if err != nil {
			return err
		}
		counts := map[int]int{}
		for _, sg := range segs {
			j := counts[sg.label]
			counts[sg.label]++
			out := filepath.Join(tsvDir, fmt.Sprintf("%s_%d_%d.tsv", base, sg.label, j))
			if err := SaveEvents(ev.TimeSlice(sg.tStart, sg.tEnd), out); err != nil {
				return err
			}
		}
		log.Infof("sliced %s into %d gesture segments", base, len(segs))
	}
	return nil
}

type trialSeg struct {
	label        int
	tStart, tEnd int64
}

// readTrialLabels parses a _labels.csv file: header row, then
// label,t_start,t_end per gesture segment.
func readTrialLabels(fnm string) ([]trialSeg, error) {
	f, err := os.Open(fnm)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	recs, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", fnm, err)
	}
	segs := make([]trialSeg, 0, len(recs))
	for i, rec := range recs {
		if i == 0 {
			continue // header
		}
		if len(rec) < 3 {
			return nil, fmt.Errorf("read %s: short row %d", fnm, i)
		}
		var sg trialSeg
		if sg.label, err = strconv.Atoi(strings.TrimSpace(rec[0])); err != nil {
			return nil, fmt.Errorf("read %s row %d: %w", fnm, i, err)
		}
		if sg.tStart, err = strconv.ParseInt(strings.TrimSpace(rec[1]), 10, 64); err != nil {
			return nil, fmt.Errorf("read %s row %d: %w", fnm, i, err)
		}
		if sg.tEnd, err = strconv.ParseInt(strings.TrimSpace(rec[2]), 10, 64); err != nil {
			return nil, fmt.Errorf("read %s row %d: %w", fnm, i, err)
		}
		segs = append(segs, sg)
	}
	return segs, nil
}

// checkMD5 compares a file's md5 digest against the expected hex
// string.
func checkMD5(fnm, want string) (bool, error) {
	f, err := os.Open(fnm)
	if err != nil {
		return false, err
	}
	defer f.Close()
	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return false, err
	}
	return hex.EncodeToString(h.Sum(nil)) == want, nil
}

// extractTarGz unpacks a .tar.gz archive into dst, flattening the
// archive's single top-level directory.
func extractTarGz(archive, dst string) error {
	f, err := os.Open(archive)
	if err != nil {
		return err
	}
	defer f.Close()
	gz, err := gzip.NewReader(f)
	if err != nil {
		return err
	}
	defer gz.Close()
	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		parts := strings.SplitN(filepath.ToSlash(hdr.Name), "/", 2)
		name := parts[len(parts)-1]
		if name == "" {
			continue
		}
		if name == ".." || strings.Contains(name, "../") || strings.Contains(name, "/..") {
			return fmt.Errorf("archive entry %s escapes the extraction root", hdr.Name)
		}
		out := filepath.Join(dst, filepath.FromSlash(name))
		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(out, 0755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
				return err
			}
			w, err := os.Create(out)
			if err != nil {
				return err
			}
			if _, err := io.Copy(w, tr); err != nil {
				w.Close()
				return err
			}
			w.Close()
		}
	}
}

// listFiles returns the sorted full paths of files under dir (one level
// deep, subdirectories included) with the given suffix.
func listFiles(dir, suffix string) ([]string, error) {
	var out []string
	ents, err := ioutil.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	for _, ent := range ents {
		if ent.IsDir() {
			sub, err := listFiles(filepath.Join(dir, ent.Name()), suffix)
			if err != nil {
				return nil, err
			}
			out = append(out, sub...)
			continue
		}
		if strings.HasSuffix(ent.Name(), suffix) {
			out = append(out, filepath.Join(dir, ent.Name()))
		}
	}
	sort.Strings(out)
	return out, nil
}
