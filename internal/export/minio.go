// internal/export/minio.go
package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog"

	"github.com/sua-org/vigil-sim/internal/core"
)

// MinioExporter copia clipes verificados pelo operador pro bucket de
// re-treino (prefixos true_positive/ e false_positive/). Best-effort por
// contrato: quem chama só loga falha.
type MinioExporter struct {
	client     *minio.Client
	bucket     string
	libraryDir string
	log        zerolog.Logger
}

// NewMinioExporterFromEnv monta o exporter. libraryDir é a raiz local da
// biblioteca de clipes (os ClipRefs são relativos a ela).
func NewMinioExporterFromEnv(libraryDir string, log zerolog.Logger) (*MinioExporter, error) {
	endpoint := getenv("MINIO_ENDPOINT", "localhost:9000")
	accessKey := os.Getenv("MINIO_ACCESS_KEY")
	secretKey := os.Getenv("MINIO_SECRET_KEY")
	bucket := getenv("MINIO_RETRAIN_BUCKET", "vigil-retrain")
	useSSL := getenv("MINIO_USE_SSL", "false") == "true"

	if accessKey == "" || secretKey == "" {
		return nil, fmt.Errorf("MINIO_ACCESS_KEY / MINIO_SECRET_KEY não configurados")
	}

	cli, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("erro criando cliente MinIO: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Cria bucket se não existir
	err = cli.MakeBucket(ctx, bucket, minio.MakeBucketOptions{})
	if err != nil {
		exists, errBucketExists := cli.BucketExists(ctx, bucket)
		if errBucketExists != nil || !exists {
			return nil, fmt.Errorf("erro criando/verificando bucket %s: %w", bucket, err)
		}
	}

	log = log.With().Str("component", "export").Logger()
	log.Info().Str("endpoint", endpoint).Str("bucket", bucket).Msg("minio exporter pronto")

	return &MinioExporter{
		client:     cli,
		bucket:     bucket,
		libraryDir: libraryDir,
		log:        log,
	}, nil
}

// ExportClip sobe o clipe pro prefixo do bucket correspondente.
// A chave preserva só o nome do arquivo — o dataset de re-treino não
// precisa da estrutura de pastas da biblioteca.
func (e *MinioExporter) ExportClip(ctx context.Context, clipRef string, bucket core.RetrainBucket) error {
	if clipRef == "" {
		return fmt.Errorf("clipRef vazio")
	}
	src := filepath.Join(e.libraryDir, filepath.FromSlash(clipRef))
	key := fmt.Sprintf("%s/%s", bucket, filepath.Base(clipRef))

	_, err := e.client.FPutObject(ctx, e.bucket, key, src, minio.PutObjectOptions{
		ContentType: "video/mp4",
	})
	if err != nil {
		return fmt.Errorf("erro ao enviar clipe pro MinIO: %w", err)
	}
	e.log.Info().Str("clip", clipRef).Str("key", key).Msg("clip exported for retraining")
	return nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
