// Command admin manages administrator accounts.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"modulehub/internal/config"
	"modulehub/internal/database"
	"modulehub/internal/models"
	"modulehub/internal/repository"
	"modulehub/internal/service"
)

func usage() {
	fmt.Println("Usage:")
	fmt.Println("  go run ./cmd/admin promote <user_id|email>            - Promote user to admin")
	fmt.Println("  go run ./cmd/admin demote <user_id|email>             - Demote user from admin")
	fmt.Println("  go run ./cmd/admin create <email> <password> [name]   - Register a new admin")
	fmt.Println("  go run ./cmd/admin list-admins                        - List all admins")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.ConnectWithOptions(cfg, database.ConnectOptions{ApplySchema: false})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() { _ = database.Close(db) }()

	users := repository.NewUserRepository(db)
	auth := service.NewAuthService(users, nil, cfg.JWTSecret)
	ctx := context.Background()

	switch command := os.Args[1]; command {
	case "promote", "demote":
		if len(os.Args) < 3 {
			usage()
			os.Exit(1)
		}
		user, err := resolve(ctx, users, os.Args[2])
		if err != nil {
			log.Fatal(err)
		}
		setAdmin(ctx, auth, user, command == "promote")

	case "create":
		if len(os.Args) < 4 {
			usage()
			os.Exit(1)
		}
		name := strings.Join(os.Args[4:], " ")
		user, err := auth.Signup(ctx, service.SignupInput{Name: name, Email: os.Args[2], Password: os.Args[3]})
		if err != nil {
			log.Fatalf("Failed to register admin: %s", describe(err))
		}
		setAdmin(ctx, auth, user, true)

	case "list-admins":
		listAdmins(ctx, auth)

	default:
		fmt.Printf("Unknown command: %s\n", command)
		usage()
		os.Exit(1)
	}
}

// resolve finds a user by numeric ID or by e-mail.
func resolve(ctx context.Context, users repository.UserRepository, ref string) (*models.User, error) {
	var (
		user *models.User
		err  error
	)
	if id, convErr := strconv.ParseUint(ref, 10, 64); convErr == nil {
		user, err = users.GetByID(ctx, uint(id))
	} else {
		user, err = users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(ref)))
	}
	if err != nil {
		return nil, fmt.Errorf("user %q: %w", ref, err)
	}
	return user, nil
}

func setAdmin(ctx context.Context, auth *service.AuthService, user *models.User, isAdmin bool) {
	verb := "promoted"
	if !isAdmin {
		verb = "demoted"
	}
	if user.IsAdmin == isAdmin {
		fmt.Printf("%s (ID: %d) is already %s\n", user.Email, user.ID, verb)
		return
	}
	if err := auth.SetAdmin(ctx, user.ID, isAdmin); err != nil {
		log.Fatalf("Failed to update %s: %s", user.Email, describe(err))
	}
	fmt.Printf("✅ Successfully %s %s (ID: %d)\n", verb, user.Email, user.ID)
}

func listAdmins(ctx context.Context, auth *service.AuthService) {
	admins, err := auth.ListAdmins(ctx)
	if err != nil {
		log.Fatalf("Failed to fetch admins: %s", describe(err))
	}
	if len(admins) == 0 {
		fmt.Println("No admins found")
		return
	}

	fmt.Println("\n📋 Current Admins:")
	fmt.Println("─────────────────────────────────────")
	for _, admin := range admins {
		fmt.Printf("ID: %d | Name: %s | Email: %s\n", admin.ID, admin.Name, admin.Email)
	}
	fmt.Println("─────────────────────────────────────")
}

// describe flattens field errors for the terminal.
func describe(err error) string {
	var appErr *models.AppError
	if !errors.As(err, &appErr) || len(appErr.Fields) == 0 {
		return err.Error()
	}
	parts := make([]string, 0, len(appErr.Fields))
	for field, msg := range appErr.Fields {
		parts = append(parts, field+": "+msg)
	}
	return strings.Join(parts, "; ")
}
