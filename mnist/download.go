package mnist

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// DownloadURL is the mirror the files are fetched from.
var DownloadURL = "https://storage.googleapis.com/cvdf-datasets/mnist"

// Download fetches every MNIST file missing from dir. Files already present, gzipped or not, are left alone.
func Download(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.WithStack(err)
	}
	for _, name := range []string{TrainImagesFile, TrainLabelsFile, TestImagesFile, TestLabelsFile} {
		if _, err := os.Stat(locate(dir, name)); err == nil {
			continue
		}
		if err := downloadFile(DownloadURL+"/"+name, filepath.Join(dir, name)); err != nil {
			return err
		}
	}
	return nil
}

func downloadFile(url, filename string) error {
	klog.Infof("Downloading %s", url)
	resp, err := http.Get(url)
	if err != nil {
		return errors.Wrapf(err, "failed downloading %q", url)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("failed downloading %q: %s", url, resp.Status)
	}

	// write to a temporary file so an interrupted download is never mistaken for a complete one
	tmp := filename + ".partial"
	f, err := os.Create(tmp)
	if err != nil {
		return errors.Wrapf(err, "failed creating file %q", tmp)
	}
	n, err := io.Copy(f, resp.Body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp)
		return errors.Wrapf(err, "failed writing %q", tmp)
	}
	klog.Infof("Downloaded %s (%s)", strings.TrimPrefix(filename, "./"), humanize.Bytes(uint64(n)))
	return errors.WithStack(os.Rename(tmp, filename))
}
