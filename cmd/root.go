package cmd

import (
	"fmt"

	"github.com/Rana718/injectdb/internal/config"
	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	Version = "0.3.0"
)

func showBanner() {
	greenColor := color.New(color.FgGreen, color.Bold)

	banner := []string{
		"╔════════════════════════════════════════════════╗",
		"║   ██╗███╗   ██╗     ██╗███████╗ ██████╗████████╗║",
		"║   ██║████╗  ██║     ██║██╔════╝██╔════╝╚══██╔══╝║",
		"║   ██║██╔██╗ ██║     ██║█████╗  ██║        ██║   ║",
		"║   ██║██║╚██╗██║██   ██║██╔══╝  ██║        ██║   ║",
		"║   ██║██║ ╚████║╚█████╔╝███████╗╚██████╗   ██║   ║",
		"║   ╚═╝╚═╝  ╚═══╝ ╚════╝ ╚══════╝ ╚═════╝   ╚═╝   ║",
		"║                                                ║",
		"║      📥 Spreadsheets and tables into SQL 📥      ║",
		"╚════════════════════════════════════════════════╝",
	}

	for _, line := range banner {
		greenColor.Println(line)
	}

	fmt.Print("                  ")
	color.New(color.FgCyan, color.Bold).Print("Version: ")
	color.New(color.FgYellow, color.Bold).Printf("%s\n", Version)
}

var rootCmd = &cobra.Command{
	Use:   "injectdb",
	Short: "Map spreadsheet columns onto database tables and insert them",
	Long: `
injectdb loads a CSV, XLSX, JSON or ODS file, lets you map its columns onto
the tables of a destination database in the browser, and inserts the rows.
It can also copy columns from a table in a source database.

Database Support:
- PostgreSQL
- MySQL
- SQLite`,

	RunE: func(cmd *cobra.Command, args []string) error {
		showVersion, _ := cmd.Flags().GetBool("version")
		if showVersion {
			fmt.Printf("injectdb version %s\n", Version)
			return nil
		}

		showBanner()
		fmt.Println()
		return cmd.Help()
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./"+config.FileName+".json)")
	rootCmd.Flags().BoolP("version", "v", false, "Show CLI version")
}

func initConfig() {
	// .env.local is loaded first so its values win
	godotenv.Load(".env.local")
	godotenv.Load(".env")

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("json")
		viper.SetConfigName(config.FileName)
	}

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && cfgFile != "" {
			color.Yellow("⚠️  Could not read config file %s: %v", cfgFile, err)
		}
	}
}

// loadConfig reads and validates the configuration for a command.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
