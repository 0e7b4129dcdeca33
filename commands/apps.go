package commands

import (
	"context"
	"sort"
	"strings"
)

// AppRequest names a package for launch/terminate.
type AppRequest struct {
	Package string `json:"package"`
}

func LaunchAppCommand(ctx context.Context, deps Deps, req AppRequest) ([]Content, error) {
	if req.Package == "" {
		return nil, InvalidParams("'package' is required")
	}
	if err := deps.Apps.LaunchApp(ctx, req.Package); err != nil {
		return nil, ActionFailed("could not launch "+req.Package, err)
	}
	return okContent, nil
}

func TerminateAppCommand(ctx context.Context, deps Deps, req AppRequest) ([]Content, error) {
	if req.Package == "" {
		return nil, InvalidParams("'package' is required")
	}
	if err := deps.Apps.TerminateApp(ctx, req.Package); err != nil {
		return nil, ActionFailed("could not terminate "+req.Package, err)
	}
	return okContent, nil
}

// ListAppsCommand returns one text item with one package name per line,
// sorted for deterministic output.
func ListAppsCommand(ctx context.Context, deps Deps) ([]Content, error) {
	apps, err := deps.Apps.ListApps(ctx)
	if err != nil {
		return nil, ActionFailed("could not list installed apps", err)
	}

	names := make([]string, 0, len(apps))
	for _, a := range apps {
		names = append(names, a.Package)
	}
	sort.Strings(names)

	return []Content{TextContent(strings.Join(names, "\n"))}, nil
}
