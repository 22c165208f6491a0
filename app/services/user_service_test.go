package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/betterdrive/betterdrive/app/services"
)

func TestStorageInfoTracksMutations(t *testing.T) {
	db := newTestDB(t)
	blobs := newFakeBlobStore()
	setQuotaLimit(t, 10_000)
	user, home := newTestUser(t, db, "info@example.com")

	userSvc := services.NewUserService(db)
	fileSvc := services.NewFileService(db, blobs)
	ctx := context.Background()

	info, err := userSvc.StorageInfo(ctx, user.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, info.UsedBytes)
	assert.EqualValues(t, 10_000, info.TotalBytes)

	file, err := fileSvc.Create(ctx, user.ID, services.CreateFileInput{
		Name: "x.bin", Size: 2500, MimeType: "application/octet-stream",
		StorageKey: "key-x", FolderID: home.ID,
	})
	require.NoError(t, err)

	info, err = userSvc.StorageInfo(ctx, user.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2500, info.UsedBytes)

	_, err = fileSvc.Delete(ctx, user.ID, file.ID)
	require.NoError(t, err)

	info, err = userSvc.StorageInfo(ctx, user.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, info.UsedBytes, "a reading after delete reflects the freed bytes")
}

func TestStorageInfoUnknownUser(t *testing.T) {
	db := newTestDB(t)
	userSvc := services.NewUserService(db)

	_, err := userSvc.StorageInfo(context.Background(), 4242)
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestStarredListing(t *testing.T) {
	db := newTestDB(t)
	blobs := newFakeBlobStore()
	setQuotaLimit(t, 1<<30)
	user, home := newTestUser(t, db, "starred@example.com")

	folderSvc := services.NewFolderService(db, blobs)
	fileSvc := services.NewFileService(db, blobs)
	userSvc := services.NewUserService(db)
	ctx := context.Background()

	folder, err := folderSvc.Create(ctx, user.ID, "Favs", &home.ID)
	require.NoError(t, err)
	file, err := fileSvc.Create(ctx, user.ID, services.CreateFileInput{
		Name: "fav.txt", Size: 1, MimeType: "text/plain", StorageKey: "key-fav", FolderID: home.ID,
	})
	require.NoError(t, err)

	_, err = folderSvc.ToggleStar(ctx, user.ID, folder.ID)
	require.NoError(t, err)
	_, err = fileSvc.ToggleStar(ctx, user.ID, file.ID)
	require.NoError(t, err)

	starred, err := userSvc.Starred(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, starred.Folders, 1)
	require.Len(t, starred.Files, 1)
	assert.Equal(t, folder.ID, starred.Folders[0].ID)
	assert.Equal(t, file.ID, starred.Files[0].ID)

	// Toggling again clears the star.
	_, err = folderSvc.ToggleStar(ctx, user.ID, folder.ID)
	require.NoError(t, err)
	starred, err = userSvc.Starred(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, starred.Folders)
}
