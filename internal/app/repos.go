package app

import (
	"gorm.io/gorm"

	"github.com/mimrai-org/mimrai-sub004/internal/pkg/logger"
	"github.com/mimrai-org/mimrai-sub004/internal/repos"
)

type Repos struct {
	User     repos.UserRepo
	Team     repos.TeamRepo
	Task     repos.TaskRepo
	Activity repos.ActivityRepo
	Chat     repos.ChatRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:     repos.NewUserRepo(db, log),
		Team:     repos.NewTeamRepo(db, log),
		Task:     repos.NewTaskRepo(db, log),
		Activity: repos.NewActivityRepo(db, log),
		Chat:     repos.NewChatRepo(db, log),
	}
}
