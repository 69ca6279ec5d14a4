package mnist

import "math/rand"

// DataSet is one split of MNIST. Batches are drawn without replacement from a permutation
// that is reshuffled at every epoch.
type DataSet struct {
	images []float32
	labels []uint8

	rand     *rand.Rand
	perm     []int
	position int
	epochs   int
}

// NewDataSet wraps flattened images (ImageSize values each) and their labels.
func NewDataSet(images []float32, labels []uint8, r *rand.Rand) *DataSet {
	if len(images) != len(labels)*ImageSize {
		panic("mnist: images and labels do not match")
	}
	ds := &DataSet{
		images: images,
		labels: labels,
		rand:   r,
	}
	ds.shuffle()
	return ds
}

// Len is the number of examples.
func (ds *DataSet) Len() int { return len(ds.labels) }

// Epochs is the number of completed passes over the data.
func (ds *DataSet) Epochs() int { return ds.epochs }

// Images returns every image, in file order.
func (ds *DataSet) Images() []float32 { return ds.images }

// Labels returns every label, in file order.
func (ds *DataSet) Labels() []uint8 { return ds.labels }

// Image returns the i-th image in file order.
func (ds *DataSet) Image(i int) []float32 { return ds.images[i*ImageSize : (i+1)*ImageSize] }

// NextBatch returns the next n images, flattened into one slice, and their labels.
// A batch that crosses an epoch boundary is completed from the next permutation.
func (ds *DataSet) NextBatch(n int) ([]float32, []uint8) {
	images := make([]float32, 0, n*ImageSize)
	labels := make([]uint8, 0, n)
	if ds.Len() == 0 {
		return images, labels
	}
	for len(labels) < n {
		if ds.position == len(ds.perm) {
			ds.epochs++
			ds.shuffle()
		}
		i := ds.perm[ds.position]
		ds.position++
		images = append(images, ds.Image(i)...)
		labels = append(labels, ds.labels[i])
	}
	return images, labels
}

func (ds *DataSet) shuffle() {
	if ds.rand == nil {
		ds.perm = make([]int, ds.Len())
		for i := range ds.perm {
			ds.perm[i] = i
		}
	} else {
		ds.perm = ds.rand.Perm(ds.Len())
	}
	ds.position = 0
}
