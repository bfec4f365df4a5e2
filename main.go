// Package main is the entry point of the nasweb server and its admin CLI.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spu-nas/nasweb/config"
	"github.com/spu-nas/nasweb/database"
	"github.com/spu-nas/nasweb/logger"
	"github.com/spu-nas/nasweb/util/common"
	"github.com/spu-nas/nasweb/web"
	"github.com/spu-nas/nasweb/web/entity"
	"github.com/spu-nas/nasweb/web/service"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func initLogger() {
	level, err := logger.ParseLevel(config.GetLogLevel())
	if err != nil {
		log.Fatal(err)
	}
	logger.InitLogger(level)
}

// runWebServer serves until a stop signal arrives. It returns an error when
// the server cannot start, so the process exits non-zero.
func runWebServer() error {
	log.Printf("%v %v", config.GetName(), config.GetVersion())
	initLogger()
	defer logger.CloseLogger()

	err := database.InitDB(config.GetDBPath())
	if err != nil {
		return err
	}
	defer func() {
		if err := database.CloseDB(); err != nil {
			logger.Warning("close db err:", err)
		}
	}()

	server := web.NewServer()
	err = server.Start()
	if err != nil {
		logger.Error("start server err:", err)
		return err
	}

	sigCh := make(chan os.Signal, 1)
	// Trap shutdown signals
	signal.Notify(sigCh, syscall.SIGHUP, syscall.SIGTERM, os.Interrupt)
	for {
		sig := <-sigCh

		switch sig {
		case syscall.SIGHUP:
			logger.Info("received SIGHUP, restarting web server")
			err := server.Stop()
			if err != nil {
				logger.Warning("stop server err:", err)
			}
			server = web.NewServer()
			err = server.Start()
			if err != nil {
				logger.Error("restart server err:", err)
				return err
			}
		default:
			logger.Infof("received %v, shutting down", sig)
			if err := server.Stop(); err != nil {
				logger.Warning("stop server err:", err)
			}
			return nil
		}
	}
}

// openDB opens the configured database, refusing a file that is not SQLite.
func openDB() error {
	path := config.GetDBPath()
	if info, err := os.Stat(path); err == nil && info.Size() > 0 {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		ok, err := database.IsSQLiteDB(f)
		f.Close()
		if err != nil {
			return err
		}
		if !ok {
			return common.NewErrorf("%s is not a SQLite database", path)
		}
	}
	return database.InitDB(path)
}

func migrateDb() {
	if err := openDB(); err != nil {
		fmt.Println("migrate failed:", err)
		os.Exit(1)
	}
	defer database.CloseDB()
	fmt.Println("database ready at", config.GetDBPath())
}

// readPassword reads a password from the terminal without echo.
var readPassword = term.ReadPassword

func promptPassword() (string, error) {
	fmt.Print("Password: ")
	first, err := readPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", err
	}
	fmt.Print("Confirm password: ")
	second, err := readPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", err
	}
	if string(first) != string(second) {
		return "", errors.New("passwords do not match")
	}
	return string(first), nil
}

func addUser(name, email, password string) {
	if password == "" {
		var err error
		if password, err = promptPassword(); err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	}
	if err := openDB(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer database.CloseDB()

	authService := service.AuthService{}
	user, err := authService.Register(context.Background(), entity.RegisterForm{
		Name:      name,
		Email:     email,
		Password:  password,
		Password2: password,
	})
	var verr *service.ValidationError
	switch {
	case err == nil:
		fmt.Println("user created:", user.Email)
		return
	case errors.As(err, &verr):
		fmt.Println("invalid user:", err)
	default:
		fmt.Println("add user failed:", err)
	}
	os.Exit(1)
}

func listUsers() {
	if err := openDB(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer database.CloseDB()

	userService := service.UserService{}
	users, err := userService.GetUsers(context.Background())
	if err != nil {
		fmt.Println("list users failed:", err)
		os.Exit(1)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "EMAIL\tNAME\tCREATED")
	for _, u := range users {
		fmt.Fprintf(w, "%s\t%s\t%s\n", u.Email, u.Name, common.FormatDate(u.CreatedAt))
	}
	w.Flush()
}

func main() {
	if err := config.LoadEnv(); err != nil {
		log.Println("load .env err:", err)
	}

	var rootCmd = &cobra.Command{
		Use:     config.GetName(),
		Short:   "Faculty website with a subscriber admin area",
		Version: config.GetVersion(),
	}

	var runCmd = &cobra.Command{
		Use:   "run",
		Short: "Run the web server",
		Run: func(cmd *cobra.Command, args []string) {
			if err := runWebServer(); err != nil {
				fmt.Println("run failed:", err)
				os.Exit(1)
			}
		},
	}

	var migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the database schema",
		Run: func(cmd *cobra.Command, args []string) {
			migrateDb()
		},
	}

	var userCmd = &cobra.Command{
		Use:   "user",
		Short: "Manage admin users",
	}

	var addCmd = &cobra.Command{
		Use:   "add",
		Short: "Register an admin user",
		Run: func(cmd *cobra.Command, args []string) {
			name, _ := cmd.Flags().GetString("name")
			email, _ := cmd.Flags().GetString("email")
			password, _ := cmd.Flags().GetString("password")
			addUser(name, email, password)
		},
	}
	addCmd.Flags().String("name", "", "display name")
	addCmd.Flags().String("email", "", "login email")
	addCmd.Flags().String("password", "", "login password (prompted when empty)")
	_ = addCmd.MarkFlagRequired("email")

	var listCmd = &cobra.Command{
		Use:   "list",
		Short: "List admin users",
		Run: func(cmd *cobra.Command, args []string) {
			listUsers()
		},
	}

	userCmd.AddCommand(addCmd, listCmd)
	rootCmd.AddCommand(runCmd, migrateCmd, userCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
