package main

import (
	"context"
	"flag"
	"log"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/sma-substitute-api/internal/models"
	"github.com/noah-isme/sma-substitute-api/internal/repository"
	"github.com/noah-isme/sma-substitute-api/pkg/config"
	"github.com/noah-isme/sma-substitute-api/pkg/database"
)

func main() {
	var (
		email    string
		password string
		fullName string
		role     string
		teacher  string
	)

	flag.StringVar(&email, "email", "", "Account email")
	flag.StringVar(&password, "password", "", "Initial password")
	flag.StringVar(&fullName, "name", "Amministratore", "Display name")
	flag.StringVar(&role, "role", string(models.RoleAdmin), "ADMIN or TEACHER")
	flag.StringVar(&teacher, "teacher", "", "Timetable name of the teacher (TEACHER accounts)")
	flag.Parse()

	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || len(password) < 8 {
		log.Fatal("email and a password of at least 8 characters are required")
	}
	userRole, ok := models.ParseUserRole(role)
	if !ok {
		log.Fatalf("unknown role %q", role)
	}
	teacher = strings.TrimSpace(teacher)
	if userRole == models.RoleTeacher && teacher == "" {
		log.Fatal("TEACHER accounts need -teacher with the name used in the timetable")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := database.NewPostgres(ctx, cfg.Database, nil)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	defer db.Close() //nolint:errcheck

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	repo := repository.NewUserRepository(db)
	if existing, err := repo.FindByEmail(ctx, email); err == nil && existing != nil {
		log.Fatalf("user %s already exists", email)
	}
	user := &models.User{Email: email, PasswordHash: string(hash), FullName: fullName, Role: userRole, Active: true}
	if teacher != "" {
		user.TeacherName = &teacher
	}
	if err := repo.Create(ctx, user); err != nil {
		log.Fatalf("failed to create user: %v", err)
	}
	log.Printf("created %s account %s (%s)", user.Role, user.Email, user.ID)
}
