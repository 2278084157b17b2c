package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NEBULA-33/nebula-1/internal/config"
	"github.com/NEBULA-33/nebula-1/internal/models"
)

type storedObject struct {
	body     []byte
	metadata map[string]*string
	modified time.Time
}

// fakeS3 keeps objects in memory. Methods it does not override panic
// through the nil embedded interface.
type fakeS3 struct {
	s3iface.S3API
	mu      sync.Mutex
	objects map[string]storedObject
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: make(map[string]storedObject)}
}

func (f *fakeS3) PutObjectWithContext(_ aws.Context, in *s3.PutObjectInput, _ ...request.Option) (*s3.PutObjectOutput, error) {
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[aws.StringValue(in.Key)] = storedObject{body: body, metadata: in.Metadata, modified: time.Now()}
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObjectWithContext(_ aws.Context, in *s3.GetObjectInput, _ ...request.Option) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	obj, ok := f.objects[aws.StringValue(in.Key)]
	if !ok {
		return nil, awserr.New(s3.ErrCodeNoSuchKey, "not found", nil)
	}
	return &s3.GetObjectOutput{
		Body:     io.NopCloser(bytes.NewReader(obj.body)),
		Metadata: obj.metadata,
	}, nil
}

func (f *fakeS3) ListObjectsV2PagesWithContext(_ aws.Context, _ *s3.ListObjectsV2Input, fn func(*s3.ListObjectsV2Output, bool) bool, _ ...request.Option) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	page := &s3.ListObjectsV2Output{}
	for key, obj := range f.objects {
		page.Contents = append(page.Contents, &s3.Object{
			Key:          aws.String(key),
			Size:         aws.Int64(int64(len(obj.body))),
			LastModified: aws.Time(obj.modified),
		})
	}
	fn(page, true)
	return nil
}

func s3Config() *config.Config {
	return &config.Config{AWS: config.AWSConfig{S3Bucket: "shop-backups", BackupPrefix: "backups"}}
}

func TestExportImportRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	backups := NewBackupService(env.db, NewStorageServiceWithClient(newFakeS3(), s3Config()), env.recorder)

	mince := env.addProduct(t, "Kıyma", func(p *models.Product) {
		p.IsWeighable = true
		p.PLUCodes = models.PLUCodes{{PLU: "10100"}}
		p.Stock = dec("7.5")
	})
	_, err := env.stock.RecordWastage(env.ctx, env.cashier, &WastageRequest{ProductID: mince.ID, Quantity: dec("0.5"), Reason: "Bozulma"})
	require.NoError(t, err)

	_, err = backups.Export(env.ctx, env.cashier)
	assert.ErrorIs(t, err, ErrManagerOnly)

	data, err := backups.Export(env.ctx, env.manager)
	require.NoError(t, err)
	assert.Len(t, data["products"], 1)
	assert.Len(t, data["wastage_history"], 1)

	raw, err := json.Marshal(data)
	require.NoError(t, err)

	// Change everything after the export, then restore it.
	require.NoError(t, env.products.DeleteProduct(env.ctx, env.manager, mince.ID))
	env.addProduct(t, "Sonradan", nil)

	parsed, err := ParseBackup(raw)
	require.NoError(t, err)
	result, err := backups.Import(env.ctx, env.manager, parsed)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Rows["products"])
	assert.ElementsMatch(t, []string{"shops", "profiles"}, result.Skipped)

	var products []models.Product
	require.NoError(t, env.db.Find(&products).Error)
	require.Len(t, products, 1)
	assert.Equal(t, mince.ID, products[0].ID)
	assert.True(t, products[0].Stock.Equal(dec("7")), "stock %s", products[0].Stock)
	require.Len(t, products[0].PLUCodes, 1)
	assert.Equal(t, "10100", products[0].PLUCodes[0].PLU)
	assert.EqualValues(t, 1, env.count(t, &models.WastageHistory{}))

	// The import itself is audited after the restore.
	assert.Contains(t, env.auditActions(t), models.ActionDataImported)
}

func TestBackupStaysInsideTheShop(t *testing.T) {
	env := newTestEnv(t)
	backups := NewBackupService(env.db, NewStorageServiceWithClient(newFakeS3(), s3Config()), env.recorder)
	env.addProduct(t, "Kıyma", nil)

	otherShop := models.Shop{Name: "Kasap Veli"}
	require.NoError(t, env.db.Create(&otherShop).Error)
	otherManager := &models.Profile{ShopID: otherShop.ID, Email: "veli@example.com", Role: string(models.RoleManager)}
	require.NoError(t, otherManager.SetPassword("password123"))
	require.NoError(t, env.db.Create(otherManager).Error)
	otherProduct := models.Product{ShopID: otherShop.ID, Name: "Sucuk", SellingPrice: dec("10"), Stock: dec("3")}
	require.NoError(t, env.db.Create(&otherProduct).Error)

	data, err := backups.Export(env.ctx, env.manager)
	require.NoError(t, err)
	require.Len(t, data["shops"], 1)
	assert.Equal(t, env.shop.ID.String(), fmt.Sprint(data["shops"][0]["id"]))
	require.Len(t, data["products"], 1)
	assert.Equal(t, "Kıyma", data["products"][0]["name"])
	require.Len(t, data["profiles"], 2)
	for _, row := range data["profiles"] {
		assert.NotContains(t, row, "password_hash")
		assert.Equal(t, env.shop.ID.String(), fmt.Sprint(row["shop_id"]))
	}
	assert.NotEmpty(t, data["wastage_reasons"], "global settings are exported")

	// An empty product list clears only this shop.
	parsed, err := ParseBackup([]byte(`{"products": []}`))
	require.NoError(t, err)
	_, err = backups.Import(env.ctx, env.manager, parsed)
	require.NoError(t, err)
	assert.EqualValues(t, 1, env.count(t, &models.Product{}))
	_, err = env.products.GetProduct(env.ctx, otherShop.ID, otherProduct.ID)
	require.NoError(t, err)

	// Rows naming another shop land in the importer's shop.
	parsed, err = ParseBackup([]byte(`{"debt_persons": [{"id": "` + uuid.NewString() + `", "shop_id": "` + otherShop.ID.String() + `", "person_name": "Ahmet", "created_at": "2026-01-05T10:00:00Z", "updated_at": "2026-01-05T10:00:00Z"}]}`))
	require.NoError(t, err)
	_, err = backups.Import(env.ctx, env.manager, parsed)
	require.NoError(t, err)
	var person models.DebtPerson
	require.NoError(t, env.db.First(&person, "person_name = ?", "Ahmet").Error)
	assert.Equal(t, env.shop.ID, person.ShopID)

	// Accounts are never replaced, so passwords survive an import.
	parsed, err = ParseBackup([]byte(`{"profiles": [], "personal_notes": []}`))
	require.NoError(t, err)
	result, err := backups.Import(env.ctx, env.manager, parsed)
	require.NoError(t, err)
	assert.Equal(t, []string{"profiles"}, result.Skipped)
	_, err = env.auth.Login(env.ctx, &LoginRequest{Email: "yonetici@example.com", Password: "password123"})
	require.NoError(t, err)
}

func TestImportOnlyTouchesTablesInTheFile(t *testing.T) {
	env := newTestEnv(t)
	backups := NewBackupService(env.db, NewStorageServiceWithClient(newFakeS3(), s3Config()), env.recorder)
	env.addProduct(t, "Ekmek", nil)

	data, err := ParseBackup([]byte(`{"personal_notes": []}`))
	require.NoError(t, err)
	_, err = backups.Import(env.ctx, env.manager, data)
	require.NoError(t, err)
	assert.EqualValues(t, 1, env.count(t, &models.Product{}))

	_, err = ParseBackup([]byte(`{"no_such_table": []}`))
	assert.ErrorIs(t, err, ErrInvalidBackup)
	_, err = ParseBackup([]byte(`not json`))
	assert.ErrorIs(t, err, ErrInvalidBackup)
}

func TestArchiveAndRestoreFromS3(t *testing.T) {
	env := newTestEnv(t)
	fake := newFakeS3()
	backups := NewBackupService(env.db, NewStorageServiceWithClient(fake, s3Config()), env.recorder)
	p := env.addProduct(t, "Sucuk", nil)

	archive, err := backups.ArchiveToS3(env.ctx, env.manager)
	require.NoError(t, err)
	assert.Contains(t, archive.Key, "backups/backup_")
	assert.NotEmpty(t, archive.Checksum)

	archives, err := backups.ListArchives(env.ctx, env.manager)
	require.NoError(t, err)
	require.Len(t, archives, 1)
	assert.Equal(t, archive.Key, archives[0].Key)

	require.NoError(t, env.products.DeleteProduct(env.ctx, env.manager, p.ID))
	_, err = backups.RestoreFromS3(env.ctx, env.manager, archive.Key)
	require.NoError(t, err)
	_, err = env.products.GetProduct(env.ctx, env.shop.ID, p.ID)
	require.NoError(t, err)

	_, err = backups.RestoreFromS3(env.ctx, env.manager, "backups/missing.json")
	assert.ErrorIs(t, err, ErrBackupArchiveNotFound)

	// A tampered archive fails its checksum.
	obj := fake.objects[archive.Key]
	obj.body = append(obj.body, ' ')
	fake.objects[archive.Key] = obj
	_, err = backups.RestoreFromS3(env.ctx, env.manager, archive.Key)
	assert.ErrorIs(t, err, ErrInvalidBackup)
}

func TestStorageDisabledWithoutCredentials(t *testing.T) {
	storage, err := NewStorageService(&config.Config{})
	require.NoError(t, err)
	assert.False(t, storage.Enabled())

	_, err = storage.PutBackup(context.Background(), []byte("{}"), time.Now())
	assert.ErrorIs(t, err, ErrBackupDisabled)
	_, err = storage.ListBackups(context.Background())
	assert.ErrorIs(t, err, ErrBackupDisabled)
}
