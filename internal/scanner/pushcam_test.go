package scanner

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPushCamera(t *testing.T) {
	ctx := context.Background()

	t.Run("DisabledIsPermissionDenied", func(t *testing.T) {
		_, err := NewPushCamera(false).Open(ctx, DefaultConstraints)
		require.ErrorIs(t, err, ErrPermissionDenied)
	})

	t.Run("ExclusiveHandle", func(t *testing.T) {
		cam := NewPushCamera(true)
		stream, err := cam.Open(ctx, DefaultConstraints)
		require.NoError(t, err)

		_, err = cam.Open(ctx, DefaultConstraints)
		require.ErrorIs(t, err, ErrCameraUnavailable)

		require.NoError(t, stream.Close())
		require.False(t, cam.Active())

		again, err := cam.Open(ctx, DefaultConstraints)
		require.NoError(t, err)
		require.NoError(t, again.Close())
	})

	t.Run("LatestFrameSampledOnce", func(t *testing.T) {
		cam := NewPushCamera(true)
		stream, err := cam.Open(ctx, DefaultConstraints)
		require.NoError(t, err)
		defer stream.Close()

		_, err = stream.Frame(ctx)
		require.ErrorIs(t, err, ErrNoFrame)

		first := image.NewGray(image.Rect(0, 0, 1, 1))
		latest := image.NewGray(image.Rect(0, 0, 2, 2))
		require.NoError(t, cam.Push(first))
		require.NoError(t, cam.Push(latest))

		img, err := stream.Frame(ctx)
		require.NoError(t, err)
		require.Equal(t, latest.Bounds(), img.Bounds())

		_, err = stream.Frame(ctx)
		require.ErrorIs(t, err, ErrNoFrame)
	})

	t.Run("PushWithoutStream", func(t *testing.T) {
		require.ErrorIs(t, NewPushCamera(true).Push(image.NewGray(image.Rect(0, 0, 1, 1))), ErrStreamClosed)
	})

	t.Run("PushEncoded", func(t *testing.T) {
		cam := NewPushCamera(true)
		stream, err := cam.Open(ctx, DefaultConstraints)
		require.NoError(t, err)
		defer stream.Close()

		var buf bytes.Buffer
		require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 3, 3))))
		require.NoError(t, cam.PushEncoded(&buf))

		img, err := stream.Frame(ctx)
		require.NoError(t, err)
		require.Equal(t, 3, img.Bounds().Dx())

		require.Error(t, cam.PushEncoded(bytes.NewReader([]byte("not an image"))))
	})

	t.Run("ClosedStream", func(t *testing.T) {
		cam := NewPushCamera(true)
		stream, err := cam.Open(ctx, DefaultConstraints)
		require.NoError(t, err)
		require.NoError(t, stream.Close())
		require.NoError(t, stream.Close())

		_, err = stream.Frame(ctx)
		require.ErrorIs(t, err, ErrStreamClosed)
	})
}
