package aenet

func cloneF32(a []float32) []float32 {
	retVal := make([]float32, len(a))
	copy(retVal, a)
	return retVal
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
