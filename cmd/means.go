package cmd

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/stat"
	"gopkg.in/yaml.v3"
)

// sampleFiles maps each named mean to the historical sample file it is estimated from.
var sampleFiles = map[string]string{
	"C1":  "servinsp1.dat",
	"C2":  "servinsp22.dat",
	"C3":  "servinsp23.dat",
	"ws1": "ws1.dat",
	"ws2": "ws2.dat",
	"ws3": "ws3.dat",
}

// loadNamedMeans resolves the mean-rate source: --means, then --data-dir, then
// the means section of the config file. It also returns a description of the source.
func loadNamedMeans(rc *RunConfig) (map[string]float64, string, error) {
	switch {
	case rc.MeansPath != "":
		m, err := loadMeansFile(rc.MeansPath)
		return m, rc.MeansPath, err
	case rc.DataDir != "":
		m, err := estimateMeans(rc.DataDir)
		return m, rc.DataDir, err
	case len(rc.FileMeans) > 0:
		return rc.FileMeans, rc.ConfigFile, nil
	default:
		return nil, "", fmt.Errorf("no means configured; pass --means or --data-dir, or add a means section to the config file")
	}
}

// loadMeansFile parses a flat YAML map of named means with strict checking.
func loadMeansFile(path string) (map[string]float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading means file: %w", err)
	}
	var named map[string]float64
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&named); err != nil {
		return nil, fmt.Errorf("parsing means file: %w", err)
	}
	return named, nil
}

// estimateMeans takes the sample mean of every historical sample file in dir.
func estimateMeans(dir string) (map[string]float64, error) {
	named := make(map[string]float64, len(sampleFiles))
	keys := make([]string, 0, len(sampleFiles))
	for key := range sampleFiles {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	for _, key := range keys {
		path := filepath.Join(dir, sampleFiles[key])
		samples, err := readSamples(path)
		if err != nil {
			return nil, err
		}
		if len(samples) == 0 {
			return nil, fmt.Errorf("%s: no samples", path)
		}
		named[key] = stat.Mean(samples, nil)
		logrus.Debugf("estimated %s = %.6f from %d samples in %s", key, named[key], len(samples), path)
	}
	return named, nil
}

// readSamples reads one floating-point sample per line; blank lines are skipped.
func readSamples(path string) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening samples: %w", err)
	}
	defer f.Close()

	var samples []float64
	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, line, err)
		}
		samples = append(samples, v)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return samples, nil
}
