package services

import "go.uber.org/zap"

type Options struct {
	// AtomicPairedWrites runs every paired write inside one transaction.
	AtomicPairedWrites bool
	PostImageMaxBytes  int64
	AvatarMaxBytes     int64
}

type Deps struct {
	Logger   *zap.Logger
	Tokens   *TokenIssuer
	Blobs    BlobStore
	Janitor  *BlobJanitor
	Notifier *Notifier
	Options  Options
}

type Services struct {
	Users    *UserService
	Posts    *PostService
	Comments *CommentService
}

func New(deps Deps) *Services {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Options.PostImageMaxBytes == 0 {
		deps.Options.PostImageMaxBytes = 1_000_000
	}
	if deps.Options.AvatarMaxBytes == 0 {
		deps.Options.AvatarMaxBytes = 500_000
	}
	return &Services{
		Users:    &UserService{deps: deps},
		Posts:    &PostService{deps: deps},
		Comments: &CommentService{deps: deps},
	}
}
