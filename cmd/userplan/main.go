package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"server/internal/adapter/repo"
	"server/internal/domain"
	"server/internal/infra"
	"server/internal/sqlinline"
)

// userplan reassigns a user's plan from the command line. The plan column on
// users is the system-of-record plan source, so this is the operational lever
// for upgrades and downgrades until a billing flow exists.
func main() {
	var (
		idFlag    string
		emailFlag string
		planFlag  string
	)

	flag.StringVar(&idFlag, "id", "", "user ID to update (UUID)")
	flag.StringVar(&emailFlag, "email", "", "user email to update")
	flag.StringVar(&planFlag, "plan", "", "plan to assign (free, standard, premium)")
	flag.Parse()

	userID := strings.TrimSpace(idFlag)
	email := strings.TrimSpace(emailFlag)
	plan := domain.NormalizePlan(planFlag)

	if userID == "" && email == "" {
		exitWithError(errors.New("either -id or -email must be provided"))
	}
	if plan == "" {
		exitWithError(errors.New("-plan is required"))
	}
	if !domain.KnownPlan(plan) {
		exitWithError(fmt.Errorf("unsupported plan %q", plan))
	}

	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		exitWithError(errors.New("DATABASE_URL is required"))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		exitWithError(fmt.Errorf("failed to connect database: %w", err))
	}
	defer pool.Close()

	logger := infra.NewLogger("cli").With().Str("cmd", "userplan").Logger()
	runner := infra.NewSQLRunner(pool, logger)
	users := repo.NewUserRepository(runner)

	lookupCtx, cancelLookup := context.WithTimeout(context.Background(), 5*time.Second)
	var user *domain.User
	if userID != "" {
		user, err = users.GetByID(lookupCtx, userID)
	} else {
		user, err = users.GetByEmail(lookupCtx, email)
	}
	cancelLookup()
	if err != nil {
		exitWithError(fmt.Errorf("failed to load user: %w", err))
	}

	if user.Plan == plan {
		fmt.Printf("User %s (%s) already on plan %s\n", user.ID, user.Email, plan)
		return
	}

	updateCtx, cancelUpdate := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelUpdate()
	row := runner.QueryRow(updateCtx, sqlinline.QUpdateUserPlan, user.ID, string(plan))

	var updatedID, updatedEmail, updatedPlan string
	if err := row.Scan(&updatedID, &updatedEmail, &updatedPlan); err != nil {
		exitWithError(fmt.Errorf("failed to update user plan: %w", err))
	}

	fmt.Printf("User %s (%s) updated: %s -> %s (daily limit %d)\n",
		updatedID, updatedEmail, user.Plan, updatedPlan, domain.LimitFor(domain.PlanName(updatedPlan)))
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
