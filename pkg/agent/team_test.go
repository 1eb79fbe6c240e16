package agent

import (
	"context"
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/woidev/ranch/pkg/a2a"
	"github.com/woidev/ranch/pkg/router"
)

func routingMember(id string, decide func(message *a2a.Message) (*a2a.Message, error)) *Local {
	card := memberCard(id, router.ExtensionURI)
	return NewLocal(card, func(ctx context.Context, message *a2a.Message) (*a2a.Message, error) {
		return decide(message)
	})
}

func TestTeam(t *testing.T) {
	ctx := context.Background()

	Convey("Given a team of agents", t, func() {
		team := NewTeam("support", "Support Desk", "coordinator")

		Convey("Info aggregates member skills", func() {
			So(team.Add("translator", echoMember("translator", "translate")), ShouldBeNil)
			So(team.Add("planner", echoMember("planner", "plan")), ShouldBeNil)

			card, err := team.Info(ctx)
			So(err, ShouldBeNil)
			So(card.Name, ShouldEqual, "Support Desk")
			So(card.Skills, ShouldContain, "translate")
			So(card.Skills, ShouldContain, "plan")
			So(card.Metadata["type"], ShouldEqual, "team")
			So(card.Metadata["router_default_agent"], ShouldEqual, "coordinator")
			So(card.Metadata["member_count"], ShouldEqual, 2)
		})

		Convey("Process drives the flow to the user's reply", func() {
			coordinator := routingMember("coordinator", func(message *a2a.Message) (*a2a.Message, error) {
				reply := a2a.NewTextMessage(a2a.RoleAgent, "delegating")
				err := router.SetRoutingDecision(reply, router.RoutingDecision{
					Recipient: "worker",
					Reason:    "needs computation",
				})
				return reply, err
			})
			So(team.Add("coordinator", coordinator), ShouldBeNil)
			So(team.Add("worker", echoMember("worker")), ShouldBeNil)

			reply, err := team.Process(ctx, a2a.NewTextMessage(a2a.RoleUser, "compute"))
			So(err, ShouldBeNil)
			So(reply, ShouldNotBeNil)

			// The worker echoes whatever the coordinator handed it.
			So(reply.String(), ShouldEqual, "delegating")
		})

		Convey("Process surfaces the hop budget", func() {
			bouncer := func(id, peer string) *Local {
				return routingMember(id, func(message *a2a.Message) (*a2a.Message, error) {
					reply := a2a.NewTextMessage(a2a.RoleAgent, "passing along")
					err := router.SetRoutingDecision(reply, router.RoutingDecision{Recipient: peer})
					return reply, err
				})
			}
			So(team.Add("coordinator", bouncer("coordinator", "relay")), ShouldBeNil)
			So(team.Add("relay", bouncer("relay", "coordinator")), ShouldBeNil)
			team.SetMaxHops(4)

			_, err := team.Process(ctx, a2a.NewTextMessage(a2a.RoleUser, "loop"))
			So(err, ShouldNotBeNil)
			So(errors.Is(err, router.ErrMaxHopsExceeded), ShouldBeTrue)
		})

		Convey("Adding a team to itself is rejected", func() {
			So(team.Add("self", team), ShouldNotBeNil)
		})

		Convey("Indirect membership cycles are rejected", func() {
			inner := NewTeam("inner", "Inner", "echo")
			So(inner.Add("echo", echoMember("echo")), ShouldBeNil)
			So(team.Add("inner", inner), ShouldBeNil)

			So(inner.Add("outer", team), ShouldNotBeNil)
		})

		Convey("HealthCheck reports true while a member is healthy", func() {
			So(team.HealthCheck(ctx), ShouldBeFalse)

			So(team.Add("echo", echoMember("echo")), ShouldBeNil)
			So(team.HealthCheck(ctx), ShouldBeTrue)
		})
	})
}
