package sqlinline

const QSelectUserByID = `--sql 30ea289e-1663-43ca-84d3-8c16a2433eb5
select id, email, name, locale, role, plan, created_at, updated_at
from users
where id = $1::uuid
limit 1;
`

const QSelectUserByEmail = `--sql c2f141cb-9eff-4fa3-933f-9da61c2d682d
select id, email, name, locale, role, plan, created_at, updated_at
from users
where lower(email) = lower($1::text)
limit 1;
`

const QUpdateUserPlan = `--sql 32d11454-9c1f-4b56-a05c-e701fdd454bd
update users
set plan = $2::text,
    updated_at = now()
where id = $1::uuid
returning id, email, plan;
`
