package main

import (
	"log"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/maendeleo/core"
	"github.com/trezcool/maendeleo/core/progress"
	"github.com/trezcool/maendeleo/core/user"
	emailsvc "github.com/trezcool/maendeleo/services/email"
	logsvc "github.com/trezcool/maendeleo/services/logger"
	"github.com/trezcool/maendeleo/storage/database"
	sqlxrepos "github.com/trezcool/maendeleo/storage/database/sqlx"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	conf := core.Conf
	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	// set up DB
	db, err := database.Open(conf)
	errAndDie(err)
	defer db.Close()
	errAndDie(db.Ping())

	validate = validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	progress.InitValidators(validate, translator)

	// set up services
	appLogger := logsvc.NewRollbarLogger(logger, conf)
	appLogger.Enable(false) // CLI failures stay local
	mailSvc := emailsvc.NewConsoleService(conf)
	usrRepo := sqlxrepos.NewUserRepository(db)
	usrSvc := user.NewService(usrRepo, conf)
	progSvc := progress.NewService(sqlxrepos.NewItemRepository(db), usrRepo, mailSvc, appLogger, conf)

	// start CLI
	cli := commandLine{
		usrSvc:  usrSvc,
		progSvc: progSvc,
		migrate: func() error { return database.Migrate(db) },
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}
