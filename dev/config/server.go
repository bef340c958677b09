package config

// SERVER_YML is used by 'haven server --dev' when no --sconfig is given.
// Data is kept in an encrypted sqlite db under ./dev & nothing is sent out.
const SERVER_YML = `
haven:
  cron:
    timeZone: "America/Toronto"
  listener:
    host: "127.0.0.1"
    port: 5000
  alerts:
    smsConcurrency: 2

store:
  driver: sqlite

sqlite:
  passPhrase: passphrase

twilio:
  dev: true

firebase:
  dev: true

google:
  storage:
    bucket: "haven"
    prefix: "haven-dev"
    sqliteBackupSchedule: "*/30 * * * *"
    enableSqliteBackupAndSync: false
  applicationCredentials:
`
