package sample

// ReadingsPerColumn returns how many readings each of the pixels columns
// represents for a batch of n readings. It is at least 1.
func ReadingsPerColumn(n, pixels int) int {
	if pixels <= 0 {
		return 1
	}
	return max(n/pixels, 1)
}

// Block returns the [start, end) slice bounds of column i. Columns beyond the
// end of the batch repeat the last reading.
func Block(n, perColumn, i int) (start, end int) {
	start = min(i*perColumn, n-1)
	end = min(start+perColumn, n)
	return start, end
}

// Nearest returns the first reading of the block as a float.
func Nearest(block []Reading) float64 {
	if len(block) == 0 {
		return 0
	}
	return float64(block[0])
}

// Average returns the arithmetic mean of the block.
func Average(block []Reading) float64 {
	if len(block) == 0 {
		return 0
	}
	var sum uint64
	for _, r := range block {
		sum += uint64(r)
	}
	return float64(sum) / float64(len(block))
}

// Downsample reduces batch to pixels column values, either picking the first
// reading of each block or averaging the block.
// Destination-based: reuses dst if it has sufficient capacity, otherwise allocates new.
// Returns an empty slice for an empty batch or when pixels is not positive.
func Downsample(dst []float64, batch []Reading, pixels int, average bool) []float64 {
	return DownsampleLast(dst, batch, pixels, pixels, average)
}

// DownsampleLast is Downsample restricted to the last keep of the pixels
// columns. Column blocks are laid out exactly as for Downsample.
func DownsampleLast(dst []float64, batch []Reading, pixels, keep int, average bool) []float64 {
	keep = min(max(keep, 0), max(pixels, 0))
	if cap(dst) >= keep {
		dst = dst[:0]
	} else {
		dst = make([]float64, 0, keep)
	}

	n := len(batch)
	if n == 0 || keep == 0 {
		return dst
	}

	perColumn := ReadingsPerColumn(n, pixels)
	for i := pixels - keep; i < pixels; i++ {
		start, end := Block(n, perColumn, i)
		if average {
			dst = append(dst, Average(batch[start:end]))
		} else {
			dst = append(dst, Nearest(batch[start:end]))
		}
	}

	return dst
}
