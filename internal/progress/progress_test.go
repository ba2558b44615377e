package progress

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBar_ReportProgress(t *testing.T) {
	var buf bytes.Buffer
	b := New(&buf, "convert")

	b.ReportProgress(50)
	out := buf.String()
	require.True(t, strings.HasPrefix(out, "\r"))
	assert.Contains(t, out, "convert")
	assert.Contains(t, out, "50%")

	// repeated values are not redrawn
	n := buf.Len()
	b.ReportProgress(50)
	assert.Equal(t, n, buf.Len())

	b.ReportProgress(250)
	assert.Contains(t, buf.String(), "100%")
}

func TestBar_Finish(t *testing.T) {
	var buf bytes.Buffer
	b := New(&buf, "epub")
	b.ReportProgress(5)
	b.SetLabel("write")
	b.Finish("book.epub")

	out := buf.String()
	assert.Contains(t, out, "write")
	assert.Contains(t, out, "book.epub")
	assert.True(t, strings.HasSuffix(out, "\n"))
}

func TestBar_Concurrent(t *testing.T) {
	var buf bytes.Buffer
	b := New(&buf, "enhance")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for p := 0; p <= 100; p += 10 {
				b.ReportProgress(p + i)
			}
		}(i)
	}
	wg.Wait()
	assert.NotZero(t, buf.Len())
}

func TestNop(t *testing.T) {
	Nop{}.ReportProgress(10)
}
