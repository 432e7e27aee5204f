// File: cmd/post.go
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/mediumctl/internal/browser"
	"github.com/xkilldash9x/mediumctl/internal/config"
	"github.com/xkilldash9x/mediumctl/internal/content"
	"github.com/xkilldash9x/mediumctl/internal/credentials"
	"github.com/xkilldash9x/mediumctl/internal/observability"
)

// postClient is the slice of *browser.Client the post commands use.
type postClient interface {
	CreatePost(ctx context.Context, html string) (string, error)
	ReadPost(ctx context.Context, postID string) (string, error)
	UpdatePost(ctx context.Context, postID, html string) error
	DestroyPost(ctx context.Context, postID string) error
	Close() error
}

// openClient builds the browser client. Tests swap it for a fake.
var openClient = func(ctx context.Context, cfg config.Interface, logger *zap.Logger) (postClient, error) {
	store, closeStore, err := credentials.Open(ctx, cfg.Credentials(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open credentials store: %w", err)
	}
	// The cookie set is captured during construction; the store is not needed afterwards.
	defer closeStore()

	client, err := browser.NewClient(ctx, cfg, store, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to start browser client: %w", err)
	}
	return client, nil
}

// withClient opens a client for the duration of fn.
func withClient(cmd *cobra.Command, fn func(ctx context.Context, client postClient) error) error {
	cfg, err := configFrom(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	logger := observability.GetLogger()

	client, err := openClient(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := client.Close(); cerr != nil {
			logger.Warn("Error closing browser client.", zap.Error(cerr))
		}
	}()
	return fn(ctx, client)
}

func newCreateCmd() *cobra.Command {
	var file string
	var verify bool

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Publish a new draft from an HTML fragment and print its post ID",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := readBody(cmd, file)
			if err != nil {
				return err
			}
			return withClient(cmd, func(ctx context.Context, client postClient) error {
				postID, err := client.CreatePost(ctx, body)
				if err != nil {
					return fmt.Errorf("create failed: %w", err)
				}
				if verify {
					if err := verifyPost(ctx, client, postID, body); err != nil {
						return err
					}
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), postID)
				return err
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "-", "HTML file to publish, or - for stdin")
	cmd.Flags().BoolVar(&verify, "verify", false, "read the post back and compare its outline with the input")
	return cmd
}

func newReadCmd() *cobra.Command {
	var outline bool

	cmd := &cobra.Command{
		Use:   "read <post-id>",
		Short: "Print the editor HTML of a post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, client postClient) error {
				html, err := client.ReadPost(ctx, args[0])
				if err != nil {
					return fmt.Errorf("read failed: %w", err)
				}
				if !outline {
					_, err = fmt.Fprintln(cmd.OutOrStdout(), html)
					return err
				}
				return printOutline(cmd.OutOrStdout(), html)
			})
		},
	}
	cmd.Flags().BoolVar(&outline, "outline", false, "print the block outline instead of raw HTML")
	return cmd
}

func newUpdateCmd() *cobra.Command {
	var file string
	var verify bool

	cmd := &cobra.Command{
		Use:   "update <post-id>",
		Short: "Replace the body of an existing post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := readBody(cmd, file)
			if err != nil {
				return err
			}
			return withClient(cmd, func(ctx context.Context, client postClient) error {
				if err := client.UpdatePost(ctx, args[0], body); err != nil {
					return fmt.Errorf("update failed: %w", err)
				}
				if verify {
					return verifyPost(ctx, client, args[0], body)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "-", "HTML file with the new body, or - for stdin")
	cmd.Flags().BoolVar(&verify, "verify", false, "read the post back and compare its outline with the input")
	return cmd
}

func newDestroyCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "destroy <post-id>",
		Aliases: []string{"delete"},
		Short:   "Delete a post",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, client postClient) error {
				if err := client.DestroyPost(ctx, args[0]); err != nil {
					return fmt.Errorf("destroy failed: %w", err)
				}
				observability.GetLogger().Info("Post deleted.", zap.String("post_id", args[0]))
				return nil
			})
		},
	}
}

// readBody reads the HTML payload from a file or, for "-", from the command's stdin.
func readBody(cmd *cobra.Command, file string) (string, error) {
	var raw []byte
	var err error
	if file == "" || file == "-" {
		raw, err = io.ReadAll(cmd.InOrStdin())
	} else {
		raw, err = os.ReadFile(file)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read post body: %w", err)
	}

	body := strings.TrimSpace(string(raw))
	if body == "" {
		return "", errors.New("post body is empty")
	}
	return body, nil
}

// verifyPost reads postID back and checks it is structurally the HTML that was sent.
func verifyPost(ctx context.Context, client postClient, postID, want string) error {
	got, err := client.ReadPost(ctx, postID)
	if err != nil {
		return fmt.Errorf("verification read failed: %w", err)
	}
	same, err := content.Equivalent(want, got)
	if err != nil {
		return fmt.Errorf("verification failed: %w", err)
	}
	if !same {
		return fmt.Errorf("post %s does not match the submitted content", postID)
	}
	observability.GetLogger().Debug("Post content verified.", zap.String("post_id", postID))
	return nil
}

func printOutline(w io.Writer, html string) error {
	blocks, err := content.Outline(html)
	if err != nil {
		return fmt.Errorf("failed to outline post: %w", err)
	}
	for _, b := range blocks {
		if _, err := fmt.Fprintln(w, b.String()); err != nil {
			return err
		}
	}
	return nil
}
