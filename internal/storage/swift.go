package storage

import (
	"context"
	"io"

	"github.com/ncw/swift/v2"
	"github.com/pkg/errors"
)

type swft struct {
	conn      *swift.Connection
	container string
}

// NewSwift returns a backend storing the files in an OpenStack Swift container.
// The connection is authenticated and the container created when missing.
func NewSwift(ctx context.Context, conn *swift.Connection, container string) (Backend, error) {
	if !conn.Authenticated() {
		if err := conn.Authenticate(ctx); err != nil {
			return nil, errors.Wrap(err, "could not authenticate to swift")
		}
	}

	if err := conn.ContainerCreate(ctx, container, nil); err != nil {
		return nil, errors.Wrap(err, "could not create swift container")
	}

	return &swft{
		conn:      conn,
		container: container,
	}, nil
}

func (b *swft) Name() string {
	return "swift"
}

func (b *swft) Reader(filename string) (io.ReadCloser, error) {
	f, _, err := b.conn.ObjectOpen(context.Background(), b.container, filename, false, nil)
	if err != nil {
		return nil, errors.Wrap(err, "could not open object")
	}
	return f, nil
}

func (b *swft) Writer(filename string) (io.WriteCloser, error) {
	f, err := b.conn.ObjectCreate(context.Background(), b.container, filename, false, "", "", nil)
	if err != nil {
		return nil, errors.Wrap(err, "could not create object")
	}
	return f, nil
}

func (b *swft) Exist(filename string) (bool, error) {
	_, _, err := b.conn.Object(context.Background(), b.container, filename)
	if err == swift.ObjectNotFound {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(err, "could not stat object")
	}
	return true, nil
}

func (b *swft) Filenames() ([]string, error) {
	names, err := b.conn.ObjectNamesAll(context.Background(), b.container, nil)
	return names, errors.Wrap(err, "could not list objects")
}

func (b *swft) Remove(filename string) error {
	err := b.conn.ObjectDelete(context.Background(), b.container, filename)
	if err != nil && err != swift.ObjectNotFound {
		return errors.Wrap(err, "could not delete object")
	}
	return nil
}
