package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"image-library/internal/domain"
)

func upload(name, body string) Upload {
	return Upload{Filename: name, ContentType: "image/jpeg", Size: int64(len(body)), Body: strings.NewReader(body)}
}

func principal(id int64) *domain.Principal {
	return &domain.Principal{UserID: id, Username: "user"}
}

func TestAlbumService_CreateThenGet(t *testing.T) {
	f := newAlbumFixture(nil)
	ctx := context.Background()

	album, err := f.albums.CreateAlbum(ctx, principal(1), "Vacation", nil)
	require.NoError(t, err)

	got, err := f.albums.GetAlbum(ctx, principal(1), album.ID)
	require.NoError(t, err)
	assert.Equal(t, "Vacation", got.Title)
	require.NotNil(t, got.OwnerID)
	assert.Equal(t, int64(1), *got.OwnerID)

	_, images, err := f.albums.ListImages(ctx, principal(1), album.ID)
	require.NoError(t, err)
	assert.Empty(t, images)
}

func TestAlbumService_CreateWithCover(t *testing.T) {
	f := newAlbumFixture(nil)

	cover := upload("beach.jpg", "jpeg-bytes")
	album, err := f.albums.CreateAlbum(context.Background(), principal(1), "Beach", &cover)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(album.CoverKey, "images/"))
	assert.True(t, strings.HasSuffix(album.CoverKey, "-beach.jpg"))
	assert.Equal(t, []byte("jpeg-bytes"), f.blobs.objects[album.CoverKey])
}

func TestAlbumService_CreateValidation(t *testing.T) {
	f := newAlbumFixture(nil)
	ctx := context.Background()

	_, err := f.albums.CreateAlbum(ctx, principal(1), "", nil)
	assert.ErrorIs(t, err, domain.ErrValidation)

	cover := upload("cover.jpg", "x")
	_, err = f.albums.CreateAlbum(ctx, principal(1), strings.Repeat("t", 61), &cover)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Empty(t, f.blobs.objects, "cover is not stored for a rejected album")

	empty := Upload{Filename: "cover.jpg", Body: strings.NewReader("")}
	_, err = f.albums.CreateAlbum(ctx, principal(1), "ok", &empty)
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "album_cover", ve.Field)
}

func TestAlbumService_CreateCoverUploadFailure(t *testing.T) {
	f := newAlbumFixture(nil)
	f.blobs.failUpload = true

	cover := upload("cover.jpg", "x")
	_, err := f.albums.CreateAlbum(context.Background(), principal(1), "Trip", &cover)
	assert.ErrorIs(t, err, domain.ErrBlobStore)

	albums, err := f.albums.ListAlbums(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, albums)
}

func TestAlbumService_ListAlbumsScopedToOwner(t *testing.T) {
	f := newAlbumFixture(nil)
	ctx := context.Background()

	for _, title := range []string{"a1", "a2"} {
		_, err := f.albums.CreateAlbum(ctx, principal(1), title, nil)
		require.NoError(t, err)
	}
	_, err := f.albums.CreateAlbum(ctx, principal(2), "b1", nil)
	require.NoError(t, err)
	_, err = f.albums.CreateAlbum(ctx, nil, "ownerless", nil)
	require.NoError(t, err)

	albums, err := f.albums.ListAlbums(ctx, 1)
	require.NoError(t, err)
	require.Len(t, albums, 2)
	assert.Equal(t, "a1", albums[0].Title)
	assert.Equal(t, "a2", albums[1].Title)

	count, err := f.albums.CountAlbums(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestAlbumService_UploadImagesContinuesPastInvalidFile(t *testing.T) {
	f := newAlbumFixture(nil)
	ctx := context.Background()
	album, err := f.albums.CreateAlbum(ctx, principal(1), "Pics", nil)
	require.NoError(t, err)

	outcomes, err := f.albums.UploadImages(ctx, principal(1), album.ID, []Upload{
		upload("one.jpg", "1"),
		{Filename: "two.jpg"},
		upload("three.jpg", "3"),
	})
	require.NoError(t, err)
	require.Len(t, outcomes, 3)

	assert.True(t, outcomes[0].Succeeded())
	assert.False(t, outcomes[1].Succeeded())
	assert.ErrorIs(t, outcomes[1].Err, domain.ErrValidation)
	assert.Equal(t, "two.jpg", outcomes[1].Filename)
	assert.True(t, outcomes[2].Succeeded())

	_, images, err := f.albums.ListImages(ctx, principal(1), album.ID)
	require.NoError(t, err)
	require.Len(t, images, 2)
	assert.Equal(t, outcomes[0].Image.ID, images[0].ID)
	assert.Equal(t, outcomes[2].Image.ID, images[1].ID)
}

func TestAlbumService_UploadImagesUnknownAlbum(t *testing.T) {
	f := newAlbumFixture(nil)

	_, err := f.albums.UploadImages(context.Background(), principal(1), 99, []Upload{upload("a.jpg", "a")})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, f.blobs.objects)
}

func TestAlbumService_DeleteEmptyAlbum(t *testing.T) {
	f := newAlbumFixture(nil)
	ctx := context.Background()
	album, err := f.albums.CreateAlbum(ctx, principal(1), "Empty", nil)
	require.NoError(t, err)

	require.NoError(t, f.albums.DeleteAlbum(ctx, principal(1), album.ID))

	_, err = f.albums.GetAlbum(ctx, principal(1), album.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	albums, err := f.albums.ListAlbums(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, albums)
	assert.Zero(t, f.blobs.deleteCount())
}

func TestAlbumService_DeleteAlbumCascades(t *testing.T) {
	f := newAlbumFixture(nil)
	ctx := context.Background()

	cover := upload("cover.jpg", "c")
	album, err := f.albums.CreateAlbum(ctx, principal(1), "Full", &cover)
	require.NoError(t, err)
	outcomes, err := f.albums.UploadImages(ctx, principal(1), album.ID, []Upload{
		upload("1.jpg", "1"), upload("2.jpg", "2"), upload("3.jpg", "3"),
	})
	require.NoError(t, err)

	require.NoError(t, f.albums.DeleteAlbum(ctx, nil, album.ID), "anonymous delete is allowed by the permissive policy")

	assert.Equal(t, 4, f.blobs.deleteCount(), "one per image plus the cover")
	assert.Contains(t, f.blobs.deletes, album.CoverKey)
	for _, o := range outcomes {
		assert.Contains(t, f.blobs.deletes, o.Image.Key)
	}
	assert.Empty(t, f.store.images)
	assert.Empty(t, f.store.albums)
	assert.Empty(t, f.blobs.objects)

	assert.ErrorIs(t, f.albums.DeleteAlbum(ctx, nil, album.ID), domain.ErrNotFound)
}

func TestAlbumService_DeleteAlbumKeepsRowsWhenBlobCleanupFails(t *testing.T) {
	f := newAlbumFixture(nil)
	ctx := context.Background()

	album, err := f.albums.CreateAlbum(ctx, principal(1), "Fragile", nil)
	require.NoError(t, err)
	outcomes, err := f.albums.UploadImages(ctx, principal(1), album.ID, []Upload{
		upload("1.jpg", "1"), upload("2.jpg", "2"), upload("3.jpg", "3"),
	})
	require.NoError(t, err)
	failing := outcomes[1].Image
	f.blobs.failDelete[failing.Key] = true

	err = f.albums.DeleteAlbum(ctx, principal(1), album.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrBlobStore)

	var cleanupErr *domain.CleanupError
	require.ErrorAs(t, err, &cleanupErr)
	assert.Equal(t, []int64{failing.ID}, cleanupErr.FailedImageIDs())
	assert.False(t, cleanupErr.CoverFailed())

	assert.Equal(t, 3, f.blobs.deleteCount(), "remaining images are still attempted")
	_, err = f.albums.GetAlbum(ctx, principal(1), album.ID)
	assert.NoError(t, err)
	_, images, err := f.albums.ListImages(ctx, principal(1), album.ID)
	require.NoError(t, err)
	assert.Len(t, images, 3)
}

func TestAlbumService_DeleteAlbumCoverFailure(t *testing.T) {
	f := newAlbumFixture(nil)
	ctx := context.Background()

	cover := upload("cover.jpg", "c")
	album, err := f.albums.CreateAlbum(ctx, principal(1), "Covered", &cover)
	require.NoError(t, err)
	f.blobs.failDelete[album.CoverKey] = true

	var cleanupErr *domain.CleanupError
	require.ErrorAs(t, f.albums.DeleteAlbum(ctx, principal(1), album.ID), &cleanupErr)
	assert.True(t, cleanupErr.CoverFailed())
	assert.Empty(t, cleanupErr.FailedImageIDs())
	assert.Len(t, f.store.albums, 1)
}

func TestAlbumService_DeleteImage(t *testing.T) {
	f := newAlbumFixture(nil)
	ctx := context.Background()

	album, err := f.albums.CreateAlbum(ctx, principal(1), "Pics", nil)
	require.NoError(t, err)
	outcomes, err := f.albums.UploadImages(ctx, principal(1), album.ID, []Upload{upload("1.jpg", "1"), upload("2.jpg", "2")})
	require.NoError(t, err)

	deleted, err := f.albums.DeleteImage(ctx, principal(1), outcomes[0].Image.ID)
	require.NoError(t, err)
	assert.Equal(t, album.ID, deleted.AlbumID)
	assert.Equal(t, []string{outcomes[0].Image.Key}, f.blobs.deletes)

	_, images, err := f.albums.ListImages(ctx, principal(1), album.ID)
	require.NoError(t, err)
	require.Len(t, images, 1)
	assert.Equal(t, outcomes[1].Image.ID, images[0].ID)
}

func TestAlbumService_DeleteImageMissing(t *testing.T) {
	f := newAlbumFixture(nil)

	_, err := f.albums.DeleteImage(context.Background(), principal(1), 404)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Zero(t, f.blobs.deleteCount())
}

func TestAlbumService_DeleteImageBlobFailureKeepsRow(t *testing.T) {
	f := newAlbumFixture(nil)
	ctx := context.Background()

	album, err := f.albums.CreateAlbum(ctx, principal(1), "Pics", nil)
	require.NoError(t, err)
	outcomes, err := f.albums.UploadImages(ctx, principal(1), album.ID, []Upload{upload("1.jpg", "1")})
	require.NoError(t, err)
	img := outcomes[0].Image
	f.blobs.failDelete[img.Key] = true

	_, err = f.albums.DeleteImage(ctx, principal(1), img.ID)
	assert.ErrorIs(t, err, domain.ErrBlobStore)
	assert.Contains(t, f.store.images, img.ID)
}

func TestAlbumService_OwnerPolicy(t *testing.T) {
	f := newAlbumFixture(OwnerPolicy{})
	ctx := context.Background()

	album, err := f.albums.CreateAlbum(ctx, principal(1), "Private", nil)
	require.NoError(t, err)

	_, err = f.albums.GetAlbum(ctx, principal(2), album.ID)
	assert.ErrorIs(t, err, domain.ErrPermission)

	err = f.albums.DeleteAlbum(ctx, nil, album.ID)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	_, err = f.albums.UploadImages(ctx, principal(2), album.ID, []Upload{upload("x.jpg", "x")})
	assert.ErrorIs(t, err, domain.ErrPermission)
	assert.Empty(t, f.blobs.objects)

	require.NoError(t, f.albums.DeleteAlbum(ctx, principal(1), album.ID))
}

func TestAlbumService_ObjectURL(t *testing.T) {
	f := newAlbumFixture(nil)

	u, err := f.albums.ObjectURL(context.Background(), "images/a.jpg")
	require.NoError(t, err)
	assert.Equal(t, "https://blobs.local/bucket/images/a.jpg", u)

	u, err = f.albums.ObjectURL(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, u)
}
