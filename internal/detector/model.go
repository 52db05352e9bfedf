package detector

import (
	"fmt"
	"io"
	"os"

	"github.com/golang/geo/r2"

	"github.com/ironsheep/planar-detector/internal/homography"
	"github.com/ironsheep/planar-detector/internal/pakfile"
	"github.com/ironsheep/planar-detector/internal/pyramid"
)

// LoadFile loads a model from path.
func (d *Detector) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		logger.Errorf("could not open detector file %s: %v", path, err)
		return fmt.Errorf("detector: open model: %w", err)
	}
	defer f.Close()

	logger.Infof("Loading detector file %s ... ", path)
	if err := d.Load(f); err != nil {
		return fmt.Errorf("detector: load %s: %w", path, err)
	}
	logger.Verbosef("Ok.")
	return nil
}

// SaveFile writes the model to path.
func (d *Detector) SaveFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		logger.Errorf("Error saving file %s: %v", path, err)
		return fmt.Errorf("detector: create model: %w", err)
	}

	logger.Infof("Saving detector file %s ... ", path)
	if err := d.Save(f); err != nil {
		f.Close()
		return fmt.Errorf("detector: save %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("detector: save %s: %w", path, err)
	}
	logger.Verbosef("Ok.")
	return nil
}

// Load replaces the detector's model with the one read from r. The stream
// holds, in order: the label, the four reference corners, patch size,
// extractor radius and octave count, the generator's transformation range,
// the mean recognition rate, the reference image, the model points and the
// classifier.
func (d *Detector) Load(r io.Reader) error {
	d.loaded = false
	d.canWarp = false
	pr := pakfile.NewReader(r)

	label, err := pr.Token()
	if err != nil {
		return fmt.Errorf("label: %w", err)
	}
	d.label = label
	logger.Debugf("Image name: %s", label)

	for i := range d.modelCorners {
		c := &d.modelCorners[i]
		if err := pr.Ints(&c.X, &c.Y); err != nil {
			return fmt.Errorf("corner %d: %w", i, err)
		}
	}

	if err := pr.Ints(&d.patchSize, &d.radius, &d.octaves); err != nil {
		return fmt.Errorf("pyramid parameters: %w", err)
	}
	logger.Verbosef("Patch size = %d, Yape radius = %d, Number of octaves = %d.",
		d.patchSize, d.radius, d.octaves)

	if err := d.generator.LoadTransformationRange(pr); err != nil {
		return err
	}

	if d.recognition, err = pr.Float32(); err != nil {
		return fmt.Errorf("recognition rate: %w", err)
	}
	logger.Verbosef("Recognition rate: %g", d.recognition)

	if _, err := pakfile.ReadImage(pr, &d.modelImage); err != nil {
		return err
	}

	n, err := pr.Int()
	if err != nil {
		return fmt.Errorf("model point count: %w", err)
	}
	if n < 0 {
		return fmt.Errorf("negative model point count %d", n)
	}
	logger.Verbosef("%d model points.", n)

	d.modelPoints = make([]ModelPoint, n)
	for i := range d.modelPoints {
		mp := &d.modelPoints[i]
		if err := pr.Float32s(&mp.U, &mp.V, &mp.Scale); err != nil {
			return fmt.Errorf("model point %d: %w", i, err)
		}
		mp.ClassIndex = i
		mp.Correspondent = -1
	}

	gray, ok := d.modelImage.ToGray8()
	d.canWarp = ok
	if ok {
		d.generator.SetOriginalImage(gray)
		d.generator.SetMask(d.modelCorners[0].X, d.modelCorners[0].Y, d.modelCorners[2].X, d.modelCorners[2].Y)
	} else {
		d.generator.SetOriginalImage(nil)
		logger.Warnf("model image is %s with %d channels; view generation disabled",
			d.modelImage.Depth, d.modelImage.Channels)
	}

	if d.classifier, err = d.loadClassifier(pr); err != nil {
		return err
	}

	d.pyramid = pyramid.New(d.radius, d.patchSize, d.octaves)
	d.h = homography.Identity()
	d.corners = [4]r2.Point{}
	d.found = false
	d.matches = 0
	d.numDetected = 0
	d.loaded = true
	return nil
}

// Save writes the model in the layout Load reads.
func (d *Detector) Save(w io.Writer) error {
	if !d.loaded {
		return ErrNotLoaded
	}
	pw := pakfile.NewWriter(w)

	pw.Line(d.label)
	for _, c := range d.modelCorners {
		pw.Line(c.X, c.Y)
	}
	pw.Line(d.patchSize, d.radius, d.octaves)

	if err := d.generator.SaveTransformationRange(pw); err != nil {
		return err
	}

	pw.Line(d.recognition)

	if err := pakfile.WriteImage(pw, d.modelImage); err != nil {
		return err
	}

	pw.Line(len(d.modelPoints))
	for _, mp := range d.modelPoints {
		pw.Line(mp.U, mp.V, mp.Scale)
	}

	if err := d.classifier.Save(pw); err != nil {
		return err
	}
	return pw.Flush()
}
