package persistence

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/tcriess/lightspeed-court/config"
	"github.com/tcriess/lightspeed-court/types"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

type GormPersist struct {
	db *gorm.DB
}

func NewGormPersister(cfg *config.Config) (Persister, error) {
	db, err := setupGormDB(cfg.PersistenceConfig.Type, cfg.PersistenceConfig.DSN)
	if err != nil {
		return nil, err
	}
	return &GormPersist{db: db}, nil
}

func setupGormDB(typ, dsn string) (*gorm.DB, error) {
	var dial gorm.Dialector
	switch typ {
	case "gorm-postgres":
		dial = postgres.Open(dsn)

	case "gorm-sqlite":
		dial = sqlite.Open(dsn)

	default:
		return nil, fmt.Errorf("invalid gorm configuration")
	}
	db, err := gorm.Open(dial, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, err
	}
	err = db.AutoMigrate(&types.User{}, &types.Ban{})
	if err != nil {
		return nil, errors.Wrap(err, "could not migrate")
	}
	return db, nil
}

func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errors.Wrap(ErrNotFound, what)
	}
	return err
}

func (p *GormPersist) StoreBan(ban *types.Ban) error {
	ban.Id = 0
	return p.db.Create(ban).Error
}

func (p *GormPersist) GetBan(id int) (*types.Ban, error) {
	ban := &types.Ban{}
	err := p.db.First(ban, id).Error
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("ban %d", id))
	}
	return ban, nil
}

func (p *GormPersist) GetBans(ipid, hwid string) ([]*types.Ban, error) {
	bans := make([]*types.Ban, 0)
	q := p.db.Order("id")
	switch {
	case ipid != "" && hwid != "":
		q = q.Where("ipid = ? OR hwid = ?", ipid, hwid)
	case ipid != "":
		q = q.Where("ipid = ?", ipid)
	case hwid != "":
		q = q.Where("hwid = ?", hwid)
	default:
		return bans, nil
	}
	err := q.Find(&bans).Error
	return bans, err
}

func (p *GormPersist) ListBans() ([]*types.Ban, error) {
	bans := make([]*types.Ban, 0)
	err := p.db.Order("id").Find(&bans).Error
	return bans, err
}

func (p *GormPersist) RevokeBan(id int) error {
	res := p.db.Model(&types.Ban{}).Where("id = ?", id).Update("revoked", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errors.Wrapf(ErrNotFound, "ban %d", id)
	}
	return nil
}

func (p *GormPersist) DeleteExpiredBans(now time.Time) (int, error) {
	bans, err := p.ListBans()
	if err != nil {
		return 0, err
	}
	ids := make([]int, 0)
	for _, ban := range bans {
		if expired(ban, now) {
			ids = append(ids, ban.Id)
		}
	}
	if len(ids) == 0 {
		return 0, nil
	}
	res := p.db.Delete(&types.Ban{}, ids)
	return int(res.RowsAffected), res.Error
}

func (p *GormPersist) StoreUser(user types.User) error {
	return p.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&user).Error
}

func (p *GormPersist) GetUser(username string) (*types.User, error) {
	user := &types.User{}
	err := p.db.Where("username = ?", username).First(user).Error
	if err != nil {
		return nil, notFound(err, "user "+username)
	}
	return user, nil
}

func (p *GormPersist) GetUserByEmail(email string) (*types.User, error) {
	user := &types.User{}
	err := p.db.Where("email = ?", email).First(user).Error
	if err != nil {
		return nil, notFound(err, "user with email "+email)
	}
	return user, nil
}

func (p *GormPersist) GetUsers() ([]*types.User, error) {
	users := make([]*types.User, 0)
	err := p.db.Order("username").Find(&users).Error
	return users, err
}

func (p *GormPersist) DeleteUser(username string) error {
	res := p.db.Where("username = ?", username).Delete(&types.User{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errors.Wrapf(ErrNotFound, "user %s", username)
	}
	return nil
}

func (p *GormPersist) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
