package printer

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"io"
	"net"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func checkerImage(w, h int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if x%2 == 0 {
				img.SetGray(x, y, color.Gray{Y: 0})
			} else {
				img.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return img
}

func TestImageToBitmap(t *testing.T) {
	bitmap := imageToBitmap(checkerImage(10, 2))
	// 10 px -> 2 bytes per line; even columns black
	assert.Equal(t, []byte{0xAA, 0x80, 0xAA, 0x80}, bitmap)
}

func TestPrintImage_RasterHeader(t *testing.T) {
	e := NewESCPOSEncoder()
	e.PrintImage(checkerImage(16, 3))

	out := e.Bytes()
	require.Len(t, out, 8+2*3)
	assert.Equal(t, []byte{GS, 'v', '0', 0, 2, 0, 3, 0}, out[:8])
}

func TestPrintImage_Bands(t *testing.T) {
	e := NewESCPOSEncoder()
	e.PrintImage(checkerImage(8, rasterBand+1))

	out := e.Bytes()
	assert.Equal(t, 2, bytes.Count(out, []byte{GS, 'v', '0', 0}))
	assert.Len(t, out, 2*8+rasterBand+1)
}

func TestEncode_ScalesToPaper(t *testing.T) {
	out := Encode(checkerImage(700, 100), 576)

	assert.Equal(t, []byte{ESC, '@'}, out[:2])
	// 576 dots -> 72 bytes per line
	assert.Equal(t, []byte{GS, 'v', '0', 0, 72, 0}, out[2:8])
	assert.Equal(t, []byte{0x0A, 0x0A, 0x0A, GS, 'V', 0}, out[len(out)-6:])
}

func TestPrint_Network(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	received := make(chan []byte, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		data, _ := io.ReadAll(conn)
		received <- data
	}()

	addr := ln.Addr().(*net.TCPAddr)
	conn, err := Open(context.Background(), Target{Host: "127.0.0.1", Port: addr.Port})
	require.NoError(t, err)

	img := checkerImage(64, 4)
	require.NoError(t, Print(conn, img, 64))
	require.NoError(t, conn.Close())

	assert.Equal(t, Encode(img, 64), <-received)
}

func TestOpen_NoTarget(t *testing.T) {
	_, err := Open(context.Background(), Target{})
	assert.Error(t, err)
}

func TestConnectNetwork_Refused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()

	_, err = ConnectNetwork(context.Background(), "127.0.0.1", port)
	assert.Error(t, err, strconv.Itoa(port))
}
