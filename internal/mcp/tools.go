package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/proboscis/claude-block-checker/internal/report"
)

func registerTools(server *mcpsdk.Server, src Source) {
	t := &tools{src: src}

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        "list_profiles",
		Description: "List the Claude profiles found in the profiles directory",
	}, t.listProfiles)

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        "check_blocks",
		Description: "Report the active 5-hour billing block of every profile, or of one profile, with token usage, cost and time until the token limit",
	}, t.checkBlocks)

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        "recommend_profile",
		Description: "Pick the profile whose active block has the most time left before hitting the token limit",
	}, t.recommendProfile)
}

type tools struct {
	src Source
}

// list_profiles types

type listProfilesInput struct{}

type profileInfo struct {
	Name string `json:"name"`
	Dir  string `json:"dir"`
}

type listProfilesOutput struct {
	Profiles []profileInfo `json:"profiles"`
	Count    int           `json:"count"`
}

func (t *tools) listProfiles(ctx context.Context, req *mcpsdk.CallToolRequest, input listProfilesInput) (*mcpsdk.CallToolResult, listProfilesOutput, error) {
	all, err := t.src.Profiles()
	if err != nil {
		return nil, listProfilesOutput{}, err
	}
	out := listProfilesOutput{Profiles: make([]profileInfo, 0, len(all)), Count: len(all)}
	for _, p := range all {
		out.Profiles = append(out.Profiles, profileInfo{Name: p.Name, Dir: p.Dir})
	}
	return nil, out, nil
}

// check_blocks types

type checkBlocksInput struct {
	Profile  string `json:"profile,omitempty" jsonschema:"Optional profile name; all profiles when empty"`
	Detailed bool   `json:"detailed,omitempty" jsonschema:"Include block counts and skipped records per profile"`
}

// checkBlocks returns the export as text so it keeps the same JSON shape
// as the CLI's --json output.
func (t *tools) checkBlocks(ctx context.Context, req *mcpsdk.CallToolRequest, input checkBlocksInput) (*mcpsdk.CallToolResult, any, error) {
	summary, err := t.src.Check(ctx, input.Profile)
	if err != nil {
		return nil, nil, err
	}
	data, err := json.MarshalIndent(report.BuildExport(summary, input.Detailed), "", "  ")
	if err != nil {
		return nil, nil, fmt.Errorf("encode report: %w", err)
	}
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: string(data)}},
	}, nil, nil
}

// recommend_profile types

type recommendProfileInput struct{}

type recommendProfileOutput struct {
	Recommended       bool   `json:"recommended"`
	Name              string `json:"name,omitempty"`
	MinutesUntilLimit int64  `json:"minutes_until_limit"`
	TimeUntilLimit    string `json:"time_until_limit,omitempty"`
	ActiveProfiles    int    `json:"active_profiles"`
	Reason            string `json:"reason,omitempty"`
}

func (t *tools) recommendProfile(ctx context.Context, req *mcpsdk.CallToolRequest, input recommendProfileInput) (*mcpsdk.CallToolResult, recommendProfileOutput, error) {
	summary, err := t.src.Check(ctx, "")
	if err != nil {
		return nil, recommendProfileOutput{}, err
	}
	out := recommendProfileOutput{ActiveProfiles: summary.ActiveProfiles}
	rec := summary.Recommended
	if rec == nil {
		out.Reason = "no profile has an active block with a measurable burn rate"
		return nil, out, nil
	}
	out.Recommended = true
	out.Name = rec.Name
	out.MinutesUntilLimit = int64(rec.TimeToLimit / time.Minute)
	out.TimeUntilLimit = report.FormatDuration(rec.TimeToLimit)
	return nil, out, nil
}
