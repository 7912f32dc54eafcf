package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fitdesk/agentd/pkg/store"
)

type profileArgs struct {
	Phone string `json:"phone" jsonschema:"required" jsonschema_description:"Customer phone number, exactly as it appears on the conversation"`
}

// ProfileTool looks up a customer record by phone number.
type ProfileTool struct {
	store store.CRMStore
}

func NewProfileTool(s store.CRMStore) *ProfileTool {
	return &ProfileTool{store: s}
}

func (t *ProfileTool) Info() ToolInfo {
	return ToolInfo{
		Name:        "get_customer_profile",
		Description: "Look up a customer's profile by phone number, including their tags and active plan.",
		Parameters:  schemaFor(&profileArgs{}),
	}
}

func (t *ProfileTool) Execute(ctx context.Context, inv Invocation) (string, error) {
	var args profileArgs
	if err := decodeArgs("get_customer_profile", inv.Args, &args); err != nil {
		return "", err
	}
	if args.Phone == "" {
		return "", &ValidationError{Tool: "get_customer_profile", Field: "phone", Reason: "is required"}
	}

	contact, err := t.store.ContactByPhone(ctx, inv.TenantID, args.Phone)
	if errors.Is(err, store.ErrNotFound) {
		return "", fmt.Errorf("no customer found with phone %s", args.Phone)
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up customer: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Name: %s\nPhone: %s\n", contact.Name, contact.Phone)
	if len(contact.Tags) > 0 {
		fmt.Fprintf(&b, "Tags: %s\n", strings.Join(contact.Tags, ", "))
	} else {
		b.WriteString("Tags: none\n")
	}
	if contact.PlanName != "" {
		fmt.Fprintf(&b, "Active plan: %s", contact.PlanName)
	} else {
		b.WriteString("Active plan: none")
	}
	return b.String(), nil
}

type updateTagsArgs struct {
	Phone string   `json:"phone" jsonschema:"required" jsonschema_description:"Customer phone number"`
	Tags  []string `json:"tags" jsonschema:"required" jsonschema_description:"Complete new tag list. Replaces all existing tags"`
}

// UpdateTagsTool overwrites a customer's tag list. The provided list
// replaces the stored one, it is not merged.
type UpdateTagsTool struct {
	store store.CRMStore
}

func NewUpdateTagsTool(s store.CRMStore) *UpdateTagsTool {
	return &UpdateTagsTool{store: s}
}

func (t *UpdateTagsTool) Info() ToolInfo {
	return ToolInfo{
		Name:        "update_customer_tags",
		Description: "Replace a customer's tag list. The given tags overwrite all existing tags, so include any tags that should be kept.",
		Parameters:  schemaFor(&updateTagsArgs{}),
	}
}

func (t *UpdateTagsTool) Execute(ctx context.Context, inv Invocation) (string, error) {
	var args updateTagsArgs
	if err := decodeArgs("update_customer_tags", inv.Args, &args); err != nil {
		return "", err
	}
	if args.Phone == "" {
		return "", &ValidationError{Tool: "update_customer_tags", Field: "phone", Reason: "is required"}
	}
	if args.Tags == nil {
		return "", &ValidationError{Tool: "update_customer_tags", Field: "tags", Reason: "is required"}
	}

	contact, err := t.store.ContactByPhone(ctx, inv.TenantID, args.Phone)
	if errors.Is(err, store.ErrNotFound) {
		return "", fmt.Errorf("no customer found with phone %s", args.Phone)
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up customer: %w", err)
	}

	if err := t.store.ReplaceContactTags(ctx, contact.ID, args.Tags); err != nil {
		return "", fmt.Errorf("failed to update tags: %w", err)
	}
	if len(args.Tags) == 0 {
		return fmt.Sprintf("Cleared all tags for %s.", contact.Name), nil
	}
	return fmt.Sprintf("Tags for %s are now: %s", contact.Name, strings.Join(args.Tags, ", ")), nil
}
