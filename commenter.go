// commenter.go

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

const (
	previewLength = 50

	maxCommentLineBytes = 1024 * 1024
)

// commenter runs one of the comment actions against a single post.
type commenter struct {
	conf  config
	graph *graphClient
	out   io.Writer
	color bool

	// waits between comments of a batch; returns early with ctx.Err() on cancellation
	sleep func(ctx context.Context, d time.Duration) error

	// called with the result of every batch run, if set
	notify func(ctx context.Context, result batchResult)
}

// batchResult summarizes a run of postFromFile.
type batchResult struct {
	PostID     string
	Total      int
	Posted     int
	FailedLine int // 1-based index of the comment that failed, 0 if none
	Err        error
}

func (r batchResult) summary() string {
	if r.Err != nil {
		return fmt.Sprintf("Posted %d of %d comment(s) on %s, stopped at #%d: %s", r.Posted, r.Total, r.PostID, r.FailedLine, r.Err)
	}
	return fmt.Sprintf("Posted %d of %d comment(s) on %s.", r.Posted, r.Total, r.PostID)
}

// postOne posts a single comment and prints the new comment's id.
func (c *commenter) postOne(ctx context.Context, text string) error {
	message := strings.TrimSpace(text)
	if message == "" {
		return validationErrorf("comment must not be empty")
	}

	log.Debugf("posting comment to %s: %q", c.conf.PostID, message)

	id, err := c.graph.postComment(ctx, c.conf.PostID, message)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			log.Debugf("graph api error: status=%d type=%s code=%d fbtrace_id=%s", apiErr.StatusCode, apiErr.Type, apiErr.Code, apiErr.FBTraceID)
		}
		return err
	}

	fmt.Fprintf(c.out, "Comment posted successfully (ID: %s)\n", valueOrNA(id))
	return nil
}

// postFromFile posts every non-empty line of the file at `path`, in order,
// waiting the configured delay between two posts.
//
// The batch stops at the first comment that fails to post.
func (c *commenter) postFromFile(ctx context.Context, path string) error {
	comments, err := readComments(path)
	if err != nil {
		return err
	}

	if len(comments) == 0 {
		fmt.Fprintln(c.out, "No comments found in file.")
		return nil
	}

	delay := c.conf.delay()
	total := len(comments)
	result := batchResult{PostID: c.conf.PostID, Total: total}

	fmt.Fprintf(c.out, "Posting %d comments with %s delay between each...\n", total, delay)

	for i, comment := range comments {
		fmt.Fprintf(c.out, "\n[%d/%d] Posting: %s\n", i+1, total, preview(comment, previewLength))

		if err := c.postOne(ctx, comment); err != nil {
			result.FailedLine = i + 1
			result.Err = err

			fmt.Fprintln(c.out, "Stopping due to error.")
			break
		}
		result.Posted++

		if i < total-1 {
			fmt.Fprintf(c.out, "Waiting %s...\n", delay)

			if err := c.sleep(ctx, delay); err != nil {
				result.FailedLine = i + 2
				result.Err = fmt.Errorf("interrupted while waiting: %w", err)
				break
			}
		}
	}

	fmt.Fprintf(c.out, "\nDone. Posted %d of %d comment(s).\n", result.Posted, result.Total)

	if c.notify != nil {
		c.notify(ctx, result)
	}

	return result.Err
}

// list prints at most `limit` comments of the post in service order.
func (c *commenter) list(ctx context.Context, asJSON bool) error {
	comments, err := c.graph.listComments(ctx, c.conf.PostID, c.conf.Limit)
	if err != nil {
		return err
	}

	log.Debugf("fetched %d comment(s) of %s", len(comments), c.conf.PostID)

	if asJSON {
		return printCommentsJSON(c.out, comments)
	}
	printComments(c.out, comments, c.color)
	return nil
}

// readComments returns the trimmed, non-empty lines of the file at `path`.
func readComments(path string) (comments []string, err error) {
	var f *os.File
	if f, err = os.Open(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, validationErrorf("file not found: %s", path)
		}
		return nil, validationErrorf("failed to open file: %s", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxCommentLineBytes)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			comments = append(comments, line)
		}
	}
	if err = scanner.Err(); err != nil {
		return nil, validationErrorf("failed to read file '%s': %s", path, err)
	}

	return comments, nil
}

// sleepContext waits for `d`, or until `ctx` is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// preview truncates `s` to `n` runes, appending "..." when truncated.
func preview(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}

func valueOrNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
