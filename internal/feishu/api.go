package feishu

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"larkmd/internal/domain"
)

const blockPageSize = 500

// call runs one request and decodes the envelope data into out.
func (c *Client) call(ctx context.Context, method, path string, body, out any) error {
	env, err := c.Call(ctx, method, path, body)
	if err != nil {
		return err
	}
	if err := env.Err(); err != nil {
		return err
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decode %s: %w", path, err)
		}
	}
	return nil
}

// RawContent fetches the document's flattened plain text.
func (c *Client) RawContent(ctx context.Context, docToken string) (string, error) {
	var data struct {
		Content string `json:"content"`
	}
	path := fmt.Sprintf("/docx/v1/documents/%s/raw_content", docToken)
	if err := c.call(ctx, http.MethodGet, path, nil, &data); err != nil {
		return "", err
	}
	return data.Content, nil
}

// ListBlocks fetches every block of the document, following the
// continuation token until the server reports no more pages.
func (c *Client) ListBlocks(ctx context.Context, docToken string) ([]*domain.Block, error) {
	var all []*domain.Block
	pageToken := ""
	for {
		path := fmt.Sprintf("/docx/v1/documents/%s/blocks?page_size=%d", docToken, blockPageSize)
		if pageToken != "" {
			path += "&page_token=" + url.QueryEscape(pageToken)
		}
		var data struct {
			Items     []*domain.Block `json:"items"`
			HasMore   bool            `json:"has_more"`
			PageToken string          `json:"page_token"`
		}
		if err := c.call(ctx, http.MethodGet, path, nil, &data); err != nil {
			return nil, err
		}
		all = append(all, data.Items...)
		if !data.HasMore || data.PageToken == "" {
			return all, nil
		}
		pageToken = data.PageToken
	}
}

// GetBlock fetches a single block, including its child id list.
func (c *Client) GetBlock(ctx context.Context, docToken, blockID string) (*domain.Block, error) {
	var data struct {
		Block *domain.Block `json:"block"`
	}
	path := fmt.Sprintf("/docx/v1/documents/%s/blocks/%s", docToken, blockID)
	if err := c.call(ctx, http.MethodGet, path, nil, &data); err != nil {
		return nil, err
	}
	if data.Block == nil {
		return nil, fmt.Errorf("block %s: empty response", blockID)
	}
	return data.Block, nil
}

// UpdateTextElements replaces the inline elements of an existing block.
// Patching the page block replaces the document title.
func (c *Client) UpdateTextElements(ctx context.Context, docToken, blockID string, els []domain.TextElement) error {
	body := map[string]any{
		"update_text_elements": map[string]any{"elements": els},
	}
	path := fmt.Sprintf("/docx/v1/documents/%s/blocks/%s", docToken, blockID)
	return c.call(ctx, http.MethodPatch, path, body, nil)
}

// ChildrenCreated is the creation response: the new blocks with their
// server-assigned ids.
type ChildrenCreated struct {
	Children []*domain.Block `json:"children"`
}

// CreateChildren appends children under a parent block. Index -1 means
// append at the end.
func (c *Client) CreateChildren(ctx context.Context, docToken, parentID string, children []*domain.Block, index int) (*ChildrenCreated, error) {
	body := map[string]any{
		"children": children,
		"index":    index,
	}
	path := fmt.Sprintf("/docx/v1/documents/%s/blocks/%s/children", docToken, parentID)
	var data ChildrenCreated
	if err := c.call(ctx, http.MethodPost, path, body, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// DeleteChildRange removes the parent's children in [start, end).
func (c *Client) DeleteChildRange(ctx context.Context, docToken, parentID string, start, end int) error {
	body := map[string]any{
		"start_index": start,
		"end_index":   end,
	}
	path := fmt.Sprintf("/docx/v1/documents/%s/blocks/%s/children/batch_delete", docToken, parentID)
	return c.call(ctx, http.MethodDelete, path, body, nil)
}
