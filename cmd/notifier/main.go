package main

import (
	"go.uber.org/fx"

	fxmodule "github.com/YASSINEBOULGUANT/application-gestion-emprunts-microservices-mysql-kafka/fx"
)

func main() {
	fx.New(
		fxmodule.NotifierModule,
	).Run()
}
