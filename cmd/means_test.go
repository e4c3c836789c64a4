package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSampleDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	samples := map[string]string{
		"servinsp1.dat":  "10\n12\n\n14\n",
		"servinsp22.dat": "15\n",
		"servinsp23.dat": " 20.5 \n19.5\n",
		"ws1.dat":        "4\n6\n",
		"ws2.dat":        "11\n",
		"ws3.dat":        "8\n8\n8\n",
	}
	for name, body := range samples {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	return dir
}

func TestEstimateMeans_SampleMeanPerFile(t *testing.T) {
	named, err := estimateMeans(writeSampleDir(t))

	require.NoError(t, err)
	assert.Equal(t, map[string]float64{
		"C1": 12, "C2": 15, "C3": 20, "ws1": 5, "ws2": 11, "ws3": 8,
	}, named)
}

func TestEstimateMeans_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		dir := writeSampleDir(t)
		require.NoError(t, os.Remove(filepath.Join(dir, "ws2.dat")))
		_, err := estimateMeans(dir)
		assert.Error(t, err)
	})
	t.Run("empty file", func(t *testing.T) {
		dir := writeSampleDir(t)
		require.NoError(t, os.WriteFile(filepath.Join(dir, "ws2.dat"), []byte("\n\n"), 0o644))
		_, err := estimateMeans(dir)
		assert.ErrorContains(t, err, "no samples")
	})
	t.Run("malformed line", func(t *testing.T) {
		dir := writeSampleDir(t)
		require.NoError(t, os.WriteFile(filepath.Join(dir, "ws2.dat"), []byte("11\nabc\n"), 0o644))
		_, err := estimateMeans(dir)
		assert.ErrorContains(t, err, "ws2.dat:2")
	})
}

func TestEstimateMeans_ReportsFirstFailingFileInKeyOrder(t *testing.T) {
	// GIVEN two unreadable sample files
	dir := writeSampleDir(t)
	require.NoError(t, os.Remove(filepath.Join(dir, "ws3.dat")))
	require.NoError(t, os.Remove(filepath.Join(dir, "servinsp1.dat")))

	// THEN every attempt fails on the file of the first key, C1
	for i := 0; i < 20; i++ {
		_, err := estimateMeans(dir)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "servinsp1.dat")
	}
}

func TestLoadNamedMeans_SourcePrecedence(t *testing.T) {
	meansFile := writeTestFile(t, "means.yaml", "C1: 1\nC2: 2\nC3: 3\nws1: 4\nws2: 5\nws3: 6\n")
	fileMeans := map[string]float64{"C1": 100}

	t.Run("means file", func(t *testing.T) {
		named, source, err := loadNamedMeans(&RunConfig{MeansPath: meansFile, FileMeans: fileMeans})
		require.NoError(t, err)
		assert.Equal(t, meansFile, source)
		assert.Equal(t, 6.0, named["ws3"])
	})
	t.Run("data dir", func(t *testing.T) {
		dir := writeSampleDir(t)
		named, source, err := loadNamedMeans(&RunConfig{DataDir: dir, FileMeans: fileMeans})
		require.NoError(t, err)
		assert.Equal(t, dir, source)
		assert.Equal(t, 12.0, named["C1"])
	})
	t.Run("config file section", func(t *testing.T) {
		named, source, err := loadNamedMeans(&RunConfig{FileMeans: fileMeans, ConfigFile: "run.yaml"})
		require.NoError(t, err)
		assert.Equal(t, "run.yaml", source)
		assert.Equal(t, fileMeans, named)
	})
	t.Run("none", func(t *testing.T) {
		_, _, err := loadNamedMeans(&RunConfig{})
		assert.Error(t, err)
	})
}

func TestLoadMeansFile_Malformed(t *testing.T) {
	path := writeTestFile(t, "means.yaml", "C1: fast\n")
	_, err := loadMeansFile(path)
	assert.Error(t, err)
}
