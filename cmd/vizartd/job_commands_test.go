package main

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"vizart/internal/jobs"
	"vizart/internal/testsupport"
)

func seedImages(t *testing.T, env *cliTestEnv) (string, string) {
	t.Helper()
	modelPath := filepath.Join(env.baseDir, "model.jpg")
	garmentPath := filepath.Join(env.baseDir, "garment.jpg")
	testsupport.WritePersonImage(t, modelPath, 200, 300)
	testsupport.WriteGarmentImage(t, garmentPath, 100, 100)
	return modelPath, garmentPath
}

func TestJobsListAndShow(t *testing.T) {
	env := setupCLITestEnv(t)
	ctx := context.Background()
	modelPath, garmentPath := seedImages(t, env)

	pending := testsupport.NewJob(t, env.store, jobs.TypeTryOn, modelPath, garmentPath, nil)
	failed := testsupport.NewJob(t, env.store, jobs.TypeTryOff, modelPath, "", nil)
	if _, err := env.store.Update(ctx, failed.ID, jobs.Patch{
		Status:       jobs.StatusFailed,
		ErrorMessage: "no human pose detected in model image",
	}); err != nil {
		t.Fatalf("mark failed: %v", err)
	}

	out, _, err := runCLI(t, []string{"jobs", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("jobs list: %v", err)
	}
	requireContains(t, out, pending.ID)
	requireContains(t, out, failed.ID)

	out, _, err = runCLI(t, []string{"jobs", "list", "--status", "failed"}, env.configPath)
	if err != nil {
		t.Fatalf("jobs list --status: %v", err)
	}
	requireContains(t, out, failed.ID)
	if strings.Contains(out, pending.ID) {
		t.Fatalf("pending job leaked into failed listing: %s", out)
	}

	if _, _, err := runCLI(t, []string{"jobs", "list", "--status", "bogus"}, env.configPath); err == nil {
		t.Fatal("expected error for unknown status filter")
	}

	out, _, err = runCLI(t, []string{"jobs", "show", failed.ID}, env.configPath)
	if err != nil {
		t.Fatalf("jobs show: %v", err)
	}
	requireContains(t, out, failed.ID)
	requireContains(t, out, "try-off")
	requireContains(t, out, "no human pose detected")

	if _, _, err := runCLI(t, []string{"jobs", "show", "missing"}, env.configPath); err == nil {
		t.Fatal("expected error for unknown job id")
	}
}

func TestJobsListStatusFlagHelpNamesEveryStatus(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"jobs", "list", "--help"}, env.configPath)
	if err != nil {
		t.Fatalf("jobs list --help: %v", err)
	}
	for _, status := range jobs.AllStatuses() {
		requireContains(t, out, string(status))
	}
}

func TestJobsCancelAndCleanup(t *testing.T) {
	env := setupCLITestEnv(t)
	ctx := context.Background()
	modelPath, garmentPath := seedImages(t, env)

	job := testsupport.NewJob(t, env.store, jobs.TypeTryOn, modelPath, garmentPath, nil)

	out, _, err := runCLI(t, []string{"jobs", "cancel", job.ID}, env.configPath)
	if err != nil {
		t.Fatalf("jobs cancel: %v", err)
	}
	requireContains(t, out, "cancelled")

	updated, err := env.store.Get(ctx, job.ID)
	if err != nil {
		t.Fatalf("lookup job: %v", err)
	}
	if updated.Status != jobs.StatusCancelled {
		t.Fatalf("expected cancelled, got %s", updated.Status)
	}

	if _, _, err := runCLI(t, []string{"jobs", "cancel", job.ID}, env.configPath); err == nil {
		t.Fatal("expected error cancelling a finished job")
	}

	out, _, err = runCLI(t, []string{"jobs", "cleanup", job.ID}, env.configPath)
	if err != nil {
		t.Fatalf("jobs cleanup: %v", err)
	}
	requireContains(t, out, "removed")

	gone, err := env.store.Get(ctx, job.ID)
	if err != nil {
		t.Fatalf("lookup removed job: %v", err)
	}
	if gone != nil {
		t.Fatal("expected job record to be deleted")
	}
}

func TestJobsHealth(t *testing.T) {
	env := setupCLITestEnv(t)
	modelPath, garmentPath := seedImages(t, env)
	testsupport.NewJob(t, env.store, jobs.TypeTryOn, modelPath, garmentPath, nil)

	out, _, err := runCLI(t, []string{"jobs", "health"}, env.configPath)
	if err != nil {
		t.Fatalf("jobs health: %v", err)
	}
	requireContains(t, out, "Readable:  true")
	requireContains(t, out, "Integrity: true")
	requireContains(t, out, "1 total")
}
