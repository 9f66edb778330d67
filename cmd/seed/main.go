package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"

	"photosocial/config"
	"photosocial/db"
	"photosocial/models"
	"photosocial/services"

	"github.com/brianvoe/gofakeit/v7"
	"go.uber.org/zap"
)

// squarePNG renders a flat random-colored square to attach to seeded posts.
func squarePNG(size int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	fill := color.RGBA{R: uint8(gofakeit.Number(0, 255)), G: uint8(gofakeit.Number(0, 255)), B: uint8(gofakeit.Number(0, 255)), A: 255}
	for x := 0; x < size; x++ {
		for y := 0; y < size; y++ {
			img.Set(x, y, fill)
		}
	}
	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}

func main() {
	var (
		configPath string
		userCount  int
		maxPosts   int
	)
	flag.StringVar(&configPath, "config", "config.yaml", "Path to the configuration file")
	flag.IntVar(&userCount, "users", 20, "Number of users to register")
	flag.IntVar(&maxPosts, "posts", 5, "Maximum posts per user")
	flag.Parse()

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	if err := config.LoadEnv(); err != nil {
		logger.Fatal("Failed to load .env", zap.Error(err))
	}
	if err := config.LoadConfig(configPath); err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}
	conf := config.AppConfig
	if err := db.ConnectDB(conf); err != nil {
		logger.Fatal("Failed to connect to the database", zap.Error(err))
	}
	defer db.Close()

	blobs, err := services.NewLocalBlobStore(conf.Blob.Dir, conf.Blob.PublicURL)
	if err != nil {
		logger.Fatal("Failed to prepare blob store", zap.Error(err))
	}
	svc := services.New(services.Deps{
		Logger: logger,
		Blobs:  blobs,
		Options: services.Options{
			AtomicPairedWrites: conf.Databases.AtomicPairedWrites,
			PostImageMaxBytes:  conf.Uploads.PostImageMaxBytes,
			AvatarMaxBytes:     conf.Uploads.AvatarMaxBytes,
		},
	})
	ctx := context.Background()

	users := make([]*models.User, 0, userCount)
	for i := 0; i < userCount; i++ {
		password := gofakeit.Password(true, false, true, true, false, 10)
		u, err := svc.Users.Register(ctx, services.RegisterInput{
			FullName:        gofakeit.FirstName() + " " + gofakeit.LastName(),
			Email:           fmt.Sprintf("%s.%d@%s", strings.ToLower(gofakeit.FirstName()), i, gofakeit.DomainName()),
			Password:        password,
			ConfirmPassword: password,
		})
		if err != nil {
			logger.Warn("Failed to register user", zap.Error(err))
			continue
		}
		users = append(users, u)
	}

	posts := make([]*models.Post, 0)
	for _, u := range users {
		for n := gofakeit.Number(0, maxPosts); n > 0; n-- {
			p, err := svc.Posts.CreatePost(ctx, u.ID, gofakeit.Quote(), &services.ImageUpload{
				Filename: "seed.png",
				Data:     squarePNG(64),
			})
			if err != nil {
				logger.Warn("Failed to create post", zap.String("user_id", u.ID), zap.Error(err))
				continue
			}
			posts = append(posts, p)
		}
	}

	for _, u := range users {
		for _, other := range users {
			if other.ID == u.ID || !gofakeit.Bool() {
				continue
			}
			if _, err := svc.Users.ToggleFollow(ctx, u.ID, other.ID); err != nil {
				logger.Warn("Failed to follow", zap.Error(err))
			}
		}
		for _, p := range posts {
			if gofakeit.Float32() > 0.2 {
				continue
			}
			if _, err := svc.Posts.ToggleLike(ctx, u.ID, p.ID); err != nil {
				logger.Warn("Failed to like", zap.Error(err))
			}
			if gofakeit.Bool() {
				if _, err := svc.Comments.Create(ctx, u.ID, p.ID, gofakeit.Quote()); err != nil {
					logger.Warn("Failed to comment", zap.Error(err))
				}
			}
		}
	}

	logger.Info("Seeding finished", zap.Int("users", len(users)), zap.Int("posts", len(posts)))
}
